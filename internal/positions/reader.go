package positions

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/ricardosaldanha2005/defi-lending/internal/chain"
	"github.com/ricardosaldanha2005/defi-lending/internal/model"
)

// Reader reads live account positions straight from protocol contracts.
type Reader struct {
	chain  *chain.Client
	logger *zap.Logger
}

// NewReader builds a position reader.
func NewReader(chainClient *chain.Client, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{chain: chainClient, logger: logger}
}

// ReadAaveAccount calls getUserAccountData on an Aave-style pool contract and
// returns the account snapshot at the latest block.
func (r *Reader) ReadAaveAccount(ctx context.Context, chainName string, pool, wallet common.Address) (model.AccountPosition, error) {
	if r.chain == nil {
		return model.AccountPosition{}, fmt.Errorf("chain client is nil")
	}

	poolABI, err := aavePoolABIInstance()
	if err != nil {
		return model.AccountPosition{}, fmt.Errorf("parse pool abi: %w", err)
	}

	data, err := poolABI.Pack("getUserAccountData", wallet)
	if err != nil {
		return model.AccountPosition{}, fmt.Errorf("pack getUserAccountData: %w", err)
	}

	blockNumber, err := r.chain.LatestBlockNumber(ctx)
	if err != nil {
		return model.AccountPosition{}, fmt.Errorf("get latest block: %w", err)
	}

	msg := ethereum.CallMsg{To: &pool, Data: data}
	resp, err := r.chain.CallContract(ctx, msg, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return model.AccountPosition{}, fmt.Errorf("call getUserAccountData: %w", err)
	}

	values, err := poolABI.Unpack("getUserAccountData", resp)
	if err != nil {
		return model.AccountPosition{}, fmt.Errorf("unpack getUserAccountData: %w", err)
	}
	if len(values) < 6 {
		return model.AccountPosition{}, fmt.Errorf("unexpected getUserAccountData arity: %d", len(values))
	}

	fields := make([]string, 6)
	for i := 0; i < 6; i++ {
		v, err := asBigInt(values[i])
		if err != nil {
			return model.AccountPosition{}, fmt.Errorf("getUserAccountData output %d: %w", i, err)
		}
		fields[i] = v.String()
	}

	return model.AccountPosition{
		Protocol:             model.ProtocolAave,
		Chain:                chainName,
		Wallet:               wallet.Hex(),
		TotalCollateralBase:  fields[0],
		TotalDebtBase:        fields[1],
		AvailableBorrowsBase: fields[2],
		LiquidationThreshold: fields[3],
		LTV:                  fields[4],
		HealthFactor:         fields[5],
		BlockNumber:          blockNumber,
	}, nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func callTokenMethod(ctx context.Context, chainClient *chain.Client, token common.Address, parsed abi.ABI, method string) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &token, Data: data}
	resp, err := chainClient.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}
