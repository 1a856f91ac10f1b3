package ton

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Transaction is one incoming transfer to the shop wallet.
type Transaction struct {
	Hash        string
	FromAddress string
	AmountNano  uint64
	Comment     string
	Timestamp   uint32
}

// AmountTON converts the nanoTON value to whole TON.
func (t Transaction) AmountTON() float64 {
	return float64(t.AmountNano) / 1e9
}

// Scanner reads recent incoming transactions of a wallet via the public
// lite servers.
type Scanner struct {
	testnet       bool
	walletAddress string

	mu     sync.Mutex
	client ton.APIClientWrapped
}

func NewScanner(testnet bool, walletAddress string) *Scanner {
	return &Scanner{
		testnet:       testnet,
		walletAddress: walletAddress,
	}
}

// connect establishes the lite server connection pool on first use.
func (s *Scanner) connect(ctx context.Context) (ton.APIClientWrapped, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	pool := liteclient.NewConnectionPool()

	configURL := "https://ton.org/global.config.json"
	if s.testnet {
		configURL = "https://ton.org/testnet-global.config.json"
	}

	if err := pool.AddConnectionsFromConfigUrl(ctx, configURL); err != nil {
		return nil, fmt.Errorf("failed to connect to TON network: %w", err)
	}

	s.client = ton.NewAPIClient(pool).WithRetry()
	return s.client, nil
}

// RecentTransactions returns up to limit most recent incoming transfers to
// the wallet, newest first. External (non-transfer) messages are skipped.
func (s *Scanner) RecentTransactions(ctx context.Context, limit int) ([]Transaction, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	addr, err := address.ParseAddr(s.walletAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet address: %w", err)
	}

	master, err := client.CurrentMasterchainInfo(ctx)
	if err != nil {
		return nil, err
	}

	account, err := client.GetAccount(ctx, master, addr)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, nil
	}

	txs, err := client.ListTransactions(ctx, addr, uint32(limit), account.LastTxLT, account.LastTxHash)
	if err != nil {
		return nil, err
	}

	var result []Transaction
	for _, tx := range txs {
		if tx.IO.In == nil {
			continue
		}
		info, ok := tryParseInternalMessage(tx)
		if !ok {
			continue
		}
		result = append(result, info)
	}

	return result, nil
}

// tryParseInternalMessage safely parses an internal message; AsInternal
// panics on external messages.
func tryParseInternalMessage(tx *tlb.Transaction) (info Transaction, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	inMsg := tx.IO.In.AsInternal()
	if inMsg == nil {
		return Transaction{}, false
	}

	comment := ""
	if inMsg.Body != nil {
		comment = extractComment(inMsg.Body)
	}

	fromAddr := ""
	if inMsg.SrcAddr != nil {
		fromAddr = inMsg.SrcAddr.String()
	}

	return Transaction{
		Hash:        base64.StdEncoding.EncodeToString(tx.Hash),
		FromAddress: fromAddr,
		AmountNano:  inMsg.Amount.Nano().Uint64(),
		Comment:     comment,
		Timestamp:   tx.Now,
	}, true
}

// extractComment reads a plain-text comment (op = 0) from a message body.
func extractComment(body *cell.Cell) string {
	slice := body.BeginParse()

	op, err := slice.LoadUInt(32)
	if err != nil || op != 0 {
		return ""
	}

	data, err := slice.LoadBinarySnake()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
