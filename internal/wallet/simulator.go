package wallet

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Simulator is an in-process wallet backend for development and demos. It
// implements every capability interface against deterministic in-memory
// state: each user gets a derived address and a small starter balance, and
// quotes follow fixed prices. Production deployments swap in the real wallet
// engine client here.
type Simulator struct {
	mu        sync.Mutex
	addresses map[int64]string
	balances  map[int64]map[string]float64
	handles   map[string]int64
	// prices is the native-denominated price table quotes run against;
	// minting extends it. Both tables are per instance and guarded by mu.
	prices   map[string]float64
	decimals map[string]int
}

// NewSimulator returns a Simulator seeded with the built-in trading pairs.
func NewSimulator() *Simulator {
	return &Simulator{
		addresses: make(map[int64]string),
		balances:  make(map[int64]map[string]float64),
		handles:   make(map[string]int64),
		prices: map[string]float64{
			NativeSymbol: 1.0,
			"USDC":       0.005,
			"BONK":       0.00000012,
		},
		decimals: map[string]int{
			NativeSymbol: 9,
			"USDC":       6,
			"BONK":       5,
		},
	}
}

// RegisterHandle maps a directory handle to a user for identity resolution.
func (s *Simulator) RegisterHandle(handle string, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles[strings.TrimPrefix(handle, "@")] = userID
}

func (s *Simulator) WalletAddress(ctx context.Context, userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addressLocked(userID), nil
}

func (s *Simulator) ResolveIdentity(ctx context.Context, identifier string) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trimmed := strings.TrimPrefix(identifier, "@")
	userID, ok := s.handles[trimmed]
	if !ok {
		var numeric int64
		if _, err := fmt.Sscanf(trimmed, "%d", &numeric); err == nil {
			if _, seen := s.balances[numeric]; seen {
				userID, ok = numeric, true
			}
		}
	}
	if !ok {
		return &Identity{Found: false}, nil
	}

	return &Identity{
		Found:       true,
		UserID:      userID,
		Address:     s.addressLocked(userID),
		DisplayName: "@" + trimmed,
	}, nil
}

func (s *Simulator) Balance(ctx context.Context, userID int64, symbolOrAddress string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FormatAmount(s.ensureFunded(userID)[symbolOrAddress]), nil
}

func (s *Simulator) ListAssets(ctx context.Context, userID int64) ([]Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	holdings := s.ensureFunded(userID)
	assets := make([]Asset, 0, len(holdings))
	for _, symbol := range []string{NativeSymbol, "USDC", "BONK"} {
		balance, ok := holdings[symbol]
		if !ok || balance <= 0 {
			continue
		}
		assets = append(assets, Asset{
			Symbol:   symbol,
			Name:     symbol,
			Address:  simAssetAddress(symbol),
			Decimals: s.decimals[symbol],
			Balance:  FormatAmount(balance),
		})
	}
	return assets, nil
}

func (s *Simulator) GetQuote(ctx context.Context, inputSymbol, outputSymbol string, amountAtomic uint64, slippageBps int) (*Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inPrice, inOK := s.prices[inputSymbol]
	outPrice, outOK := s.prices[outputSymbol]
	if !inOK || !outOK {
		return nil, fmt.Errorf("unsupported pair %s/%s", inputSymbol, outputSymbol)
	}

	inAmount := FromAtomic(amountAtomic, s.decimals[inputSymbol])
	outAmount := inAmount * inPrice / outPrice

	return &Quote{
		InputSymbol:     inputSymbol,
		OutputSymbol:    outputSymbol,
		InAmountAtomic:  amountAtomic,
		OutAmountAtomic: ToAtomic(outAmount, s.decimals[outputSymbol]),
		OutDecimals:     s.decimals[outputSymbol],
		PriceImpactPct:  0.01,
		SlippageBps:     slippageBps,
	}, nil
}

func (s *Simulator) ExecuteTransfer(ctx context.Context, fromAddress, toAddress, amount, assetAddress string, decimals int) (*Receipt, error) {
	parsed, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	symbol := NativeSymbol
	for sym := range s.prices {
		if simAssetAddress(sym) == assetAddress && assetAddress != "" {
			symbol = sym
		}
	}

	fromID, fromKnown := s.userByAddressLocked(fromAddress)
	if !fromKnown {
		return nil, fmt.Errorf("unknown sender address")
	}

	holdings := s.ensureFunded(fromID)
	if holdings[symbol] < parsed {
		return nil, fmt.Errorf("insufficient %s balance", symbol)
	}
	holdings[symbol] -= parsed

	if toID, known := s.userByAddressLocked(toAddress); known {
		s.ensureFunded(toID)[symbol] += parsed
	}

	return s.receipt(), nil
}

func (s *Simulator) ExecuteTrade(ctx context.Context, quote *Quote, fromAddress string, userID int64) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	holdings := s.ensureFunded(userID)
	inAmount := FromAtomic(quote.InAmountAtomic, s.decimals[quote.InputSymbol])
	if holdings[quote.InputSymbol] < inAmount {
		return nil, fmt.Errorf("insufficient %s balance", quote.InputSymbol)
	}

	holdings[quote.InputSymbol] -= inAmount
	holdings[quote.OutputSymbol] += FromAtomic(quote.OutAmountAtomic, quote.OutDecimals)

	return s.receipt(), nil
}

func (s *Simulator) CreateEvent(ctx context.Context, userID int64, draft EventDraft) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureFunded(userID)
	return s.receipt(), nil
}

func (s *Simulator) MintAsset(ctx context.Context, userID int64, draft AssetDraft) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureFunded(userID)[draft.Symbol] = float64(draft.Supply)
	s.prices[draft.Symbol] = 0.000001
	s.decimals[draft.Symbol] = 0
	return s.receipt(), nil
}

func (s *Simulator) ImportSecret(ctx context.Context, userID int64, secret string) (string, error) {
	if len(strings.Fields(secret)) < 12 && len(secret) < 32 {
		return "", fmt.Errorf("secret is not a valid key or mnemonic")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureFunded(userID)
	return s.addressLocked(userID), nil
}

func (s *Simulator) addressLocked(userID int64) string {
	if addr, ok := s.addresses[userID]; ok {
		return addr
	}

	addr := base58From(sha256.Sum256([]byte(fmt.Sprintf("lumen-sim:%d", userID))))
	s.addresses[userID] = addr
	return addr
}

func (s *Simulator) userByAddressLocked(address string) (int64, bool) {
	for id, addr := range s.addresses {
		if addr == address {
			return id, true
		}
	}
	return 0, false
}

// ensureFunded lazily seeds a starter balance so every user can try the
// flows immediately. Caller must hold s.mu.
func (s *Simulator) ensureFunded(userID int64) map[string]float64 {
	if holdings, ok := s.balances[userID]; ok {
		return holdings
	}

	holdings := map[string]float64{
		NativeSymbol: 10,
		"USDC":       250,
	}
	s.balances[userID] = holdings
	s.addressLocked(userID)
	return holdings
}

func (s *Simulator) receipt() *Receipt {
	ref := uuid.NewString()
	return &Receipt{
		ReferenceID: ref,
		ViewerLink:  "",
	}
}

func simAssetAddress(symbol string) string {
	if symbol == NativeSymbol {
		return ""
	}
	return base58From(sha256.Sum256([]byte("lumen-sim-asset:" + symbol)))
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// base58From derives a fixed-length base58 string from a digest. It is not
// a real base58 encoding, just a deterministic address-shaped identifier.
func base58From(sum [32]byte) string {
	out := make([]byte, 40)
	for i := range out {
		out[i] = base58Alphabet[int(sum[i%len(sum)])%len(base58Alphabet)]
	}
	return string(out)
}
