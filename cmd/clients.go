package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"notion2mf/internal/auth"
	"notion2mf/internal/config"
	"notion2mf/internal/database"
	"notion2mf/internal/invoice"
	"notion2mf/internal/ledger"
	"notion2mf/internal/ledger/store"
	"notion2mf/internal/moneyforward"
	"notion2mf/internal/notion"
)

var errNotConfigured = errors.New("configuration is not loaded")

// commandContext is canceled on SIGINT/SIGTERM.
func commandContext(log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func newNotionClient(log zerolog.Logger) (*notion.Client, error) {
	if cfg == nil {
		return nil, errNotConfigured
	}
	if err := cfg.ValidateNotion(); err != nil {
		log.Error().Err(err).Msg("Notion is not configured")
		return nil, fmt.Errorf("%w\n.envファイルに NOTION_API_KEY と NOTION_DATABASE_ID を設定してください", err)
	}

	props, err := config.LoadNotionProperties(cfg.Notion.PropertiesFile)
	if err != nil {
		return nil, err
	}

	return notion.NewClient(notion.ClientConfig{
		BaseURL:    cfg.Notion.APIURL,
		APIKey:     cfg.Notion.APIKey,
		DatabaseID: cfg.Notion.DatabaseID,
		Version:    cfg.Notion.Version,
		Properties: props,
	})
}

func newAuthenticator(log zerolog.Logger) (*auth.Authenticator, error) {
	if cfg == nil {
		return nil, errNotConfigured
	}
	if err := cfg.ValidateMoneyForward(); err != nil {
		log.Error().Err(err).Msg("MoneyForward is not configured")
		return nil, fmt.Errorf("%w\n.envファイルに MoneyForward のクライアント情報を設定してください", err)
	}

	return auth.NewAuthenticator(auth.Config{
		ClientID:     cfg.MoneyForward.ClientID,
		ClientSecret: cfg.MoneyForward.ClientSecret,
		RedirectURI:  cfg.MoneyForward.RedirectURI,
		AuthURL:      cfg.MoneyForward.AuthURL,
		TokenURL:     cfg.MoneyForward.TokenURL,
		Scope:        cfg.MoneyForward.Scope,
		TokenFile:    cfg.MoneyForward.TokenFile,
	}), nil
}

func newMoneyForwardClient(ctx context.Context, log zerolog.Logger) (*moneyforward.Client, error) {
	authenticator, err := newAuthenticator(log)
	if err != nil {
		return nil, err
	}

	httpClient, err := authenticator.HTTPClient(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrNoToken) {
			return nil, fmt.Errorf("MoneyForwardの認証が必要です。先に 'notion2mf auth' を実行してください")
		}
		return nil, fmt.Errorf("failed to load MoneyForward token: %w", err)
	}

	return moneyforward.NewClient(httpClient, cfg.MoneyForward.APIURL), nil
}

func newMapper() *invoice.Mapper {
	if cfg == nil {
		return invoice.NewMapper()
	}
	return invoice.NewMapper(
		invoice.WithTaxRate(cfg.Invoice.TaxRate),
		invoice.WithPaymentTerms(cfg.Invoice.PaymentTermsDays),
	)
}

// newLedger opens the submission ledger. Without DATABASE_URL it returns nil and a no-op
// close function.
func newLedger(ctx context.Context, log zerolog.Logger) (*ledger.Service, func(), error) {
	if cfg == nil || cfg.Database.URL == "" {
		log.Debug().Msg("DATABASE_URL not set, running without submission ledger")
		return nil, func() {}, nil
	}

	db, err := database.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	s := store.New(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	closeFn := func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close ledger database")
		}
	}
	return ledger.NewService(s), closeFn, nil
}
