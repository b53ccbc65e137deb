package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/javajoker/datasov-backend/internal/config"
	"github.com/javajoker/datasov-backend/internal/events"
	"github.com/javajoker/datasov-backend/internal/models"
	"github.com/javajoker/datasov-backend/internal/repository"
)

const (
	testAuthority  = "authority"
	testOracle     = "oracle-1"
	testFeeAccount = "marketplace-fees"
)

type fixture struct {
	ctx      context.Context
	store    *repository.MemoryStore
	recorder *events.Recorder
	now      time.Time
	engine   *Engine

	oracles     *OracleService
	identities  *IdentityService
	permissions *PermissionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ctx:      context.Background(),
		store:    repository.NewMemoryStore(),
		recorder: &events.Recorder{},
		now:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.engine = NewEngine(f.store, ClockFunc(func() time.Time { return f.now }), f.recorder, nil)
	f.oracles = NewOracleService(f.engine)
	f.identities = NewIdentityService(f.engine)
	f.permissions = NewPermissionService(f.engine)
	return f
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "8080"},
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
		AWS: config.AWSConfig{
			Region:         "us-east-1",
			EvidenceBucket: "evidence-test",
			PresignTTL:     15,
		},
		Payment: config.PaymentConfig{
			Currency:       "usd",
			MinimumDeposit: 100,
		},
		Marketplace: config.MarketplaceConfig{
			FeeAccount:       testFeeAccount,
			CurrencyExponent: 2,
		},
		Admin: config.AdminConfig{Address: "admin"},
	}
}

// withOracle initializes the registry and registers testOracle.
func (f *fixture) withOracle(t *testing.T) {
	t.Helper()

	_, err := f.oracles.InitializeRegistry(f.ctx, testAuthority, &InitializeRegistryRequest{MinimumStake: 1000, SlashAmount: 100})
	require.NoError(t, err)
	_, err = f.oracles.RegisterOracle(f.ctx, testOracle, &RegisterOracleRequest{DisplayName: "Oracle One", StakeAmount: 1000})
	require.NoError(t, err)
}

func (f *fixture) verifiedIdentity(t *testing.T, owner, key string) *models.Identity {
	t.Helper()

	_, err := f.identities.RegisterIdentity(f.ctx, owner, &RegisterIdentityRequest{IdentityKey: key, EvidenceRef: "kyc-doc"})
	require.NoError(t, err)
	identity, err := f.identities.VerifyIdentity(f.ctx, testOracle, key, &VerifyIdentityRequest{
		Level:       models.VerificationLevelBasic,
		EvidenceRef: "kyc-report",
	})
	require.NoError(t, err)
	return identity
}

func (f *fixture) fund(t *testing.T, address string, amount uint64) {
	t.Helper()

	require.NoError(t, f.store.Atomic(f.ctx, func(l repository.Ledger) error {
		return creditAccount(l, address, amount)
	}))
}

// balance returns zero for addresses that never held value.
func (f *fixture) balance(t *testing.T, address string) uint64 {
	t.Helper()

	var balance uint64
	require.NoError(t, f.store.View(f.ctx, func(l repository.Ledger) error {
		account, err := l.GetAccount(address)
		if err != nil {
			return notFound(err, nil)
		}
		balance = account.Balance
		return nil
	}))
	return balance
}
