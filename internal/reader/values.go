package reader

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint64(value interface{}) (uint64, error) {
	v, err := asBigInt(value)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("uint64 overflow: %s", v.String())
	}
	return v.Uint64(), nil
}

func asBool(value interface{}) (bool, error) {
	v, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("unsupported bool type %T", value)
	}
	return v, nil
}

func asString(value interface{}) (string, error) {
	v, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("unsupported string type %T", value)
	}
	return v, nil
}

func asBigInts(value interface{}) ([]*big.Int, error) {
	v, ok := value.([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("unsupported uint256[] type %T", value)
	}
	return v, nil
}

func asStrings(value interface{}) ([]string, error) {
	v, ok := value.([]string)
	if !ok {
		return nil, fmt.Errorf("unsupported string[] type %T", value)
	}
	return v, nil
}

func asBools(value interface{}) ([]bool, error) {
	v, ok := value.([]bool)
	if !ok {
		return nil, fmt.Errorf("unsupported bool[] type %T", value)
	}
	return v, nil
}

func expectArity(method string, values []interface{}, n int) error {
	if len(values) != n {
		return fmt.Errorf("%s: expected %d values, got %d", method, n, len(values))
	}
	return nil
}
