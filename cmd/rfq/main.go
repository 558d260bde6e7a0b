// cmd/rfq/main.go — Launches a quote run from the command line, without the
// HTTP API. Waits out the collection window and prints the offers gathered.
// Usage: go run cmd/rfq/main.go -suppliers "Acme Corp,Widget Co" -price 100 "M8 hex bolts, zinc plated, qty 500"
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"quotepilot/internal/config"
	"quotepilot/internal/dto"
	"quotepilot/internal/infra"
	"quotepilot/internal/repository"
	"quotepilot/internal/service"
	"quotepilot/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	suppliers := flag.String("suppliers", "", "comma-separated supplier names (required)")
	price := flag.Float64("price", 0, "list price used as the negotiation baseline (required)")
	wait := flag.Duration("wait", 0, "override the reply collection window (default from POLL_DURATION)")
	flag.Parse()

	spec := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if spec == "" || *suppliers == "" || *price <= 0 {
		fmt.Fprintln(os.Stderr, "usage: rfq -suppliers \"A,B\" -price 100 [-wait 2m] \"spec text\"")
		os.Exit(2)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *wait > 0 {
		cfg.PollDuration = *wait
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The CLI runs its own single-worker delivery loop so queued RFQs
	// actually go out while we wait for replies.
	mailer := infra.NewMailer(cfg)
	smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	outboxRepo := repository.NewOutboxRepository(db)
	dispatcher := worker.NewDispatcher(rdb)
	worker.StartWorkerPool(ctx, rdb, &worker.WorkerHandlers{
		Email: worker.NewEmailWorker(outboxRepo, mailer, smtpCB, rdb),
	}, 1)

	offerRepo := repository.NewOfferRepository(db)
	rfqSvc := service.NewRFQService(
		ctx,
		repository.NewQuoteRequestRepository(db),
		repository.NewSupplierRepository(db),
		offerRepo,
		outboxRepo,
		dispatcher,
		infra.NewIMAPMailbox(cfg),
		worker.NewReviewQueue(rdb),
		cfg.MailDomain, cfg.PollInterval, cfg.PollDuration,
	)

	var names []string
	for _, n := range strings.Split(*suppliers, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}

	resp, err := rfqSvc.LaunchRFQ(ctx, dto.LaunchRFQRequest{
		Spec:      spec,
		ListPrice: decimal.NewFromFloat(*price),
		Suppliers: names,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("launch failed")
	}

	fmt.Printf("Quote request %s — %d RFQs sent:\n", resp.QuoteRequestID, resp.RFQsSent)
	for _, s := range resp.Suppliers {
		fmt.Printf("  %-30s %s\n", s.Name, s.Address)
	}

	fmt.Printf("Collecting replies for %s...\n", cfg.PollDuration)
	time.Sleep(cfg.PollDuration + 2*time.Second)

	offers, err := offerRepo.ListBySpec(ctx, spec, 50)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list offers")
	}
	if len(offers) == 0 {
		fmt.Println("No offers collected.")
		return
	}

	fmt.Printf("\n%d offer(s) collected:\n", len(offers))
	for _, o := range offers {
		priceStr := "no price"
		if o.Price != nil {
			cur := ""
			if o.Currency != nil {
				cur = *o.Currency
			}
			priceStr = cur + o.Price.StringFixed(2)
		}
		lead := ""
		if o.LeadTime != nil && o.LeadTimeUnit != nil {
			lead = fmt.Sprintf(", lead %d %s(s)", *o.LeadTime, *o.LeadTimeUnit)
		}
		fmt.Printf("  %-30s %s%s [%s]\n", o.SupplierName, priceStr, lead, o.Status)
	}
}
