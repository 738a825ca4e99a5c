package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/account"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/audit"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/bank"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/config"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/events/kafka"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/logging"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/models"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/processor"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/queue"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/risk"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/storage/memory"
	"github.com/sheikh-saqib/bank-transaction-pipeline/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustNewConfig()

	logger, err := logging.NewZapLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	lg := logger.Sugar()

	var auditStore interfaces.AuditStore = memory.NewAuditStore()
	if cfg.DatabaseDSN != "" {
		db, err := sql.Open("postgres", cfg.DatabaseDSN)
		if err != nil {
			lg.Fatalw("open database", "error", err)
		}
		defer db.Close()
		auditStore = postgres.NewAuditStore(db)
	}

	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
	}

	externalFee, err := decimal.NewFromString(cfg.ExternalFeeFixed)
	if err != nil {
		lg.Fatalw("parse external fee", "error", err)
	}

	directory := bank.New("ToyBank")
	txQueue := queue.New()
	auditLog := audit.NewLog(auditStore, lg)

	riskCfg := risk.DefaultConfig()
	riskCfg.FrequencyWindow = time.Duration(cfg.RiskFrequencyWindowSeconds) * time.Second
	riskCfg.FrequencyLimit = cfg.RiskFrequencyLimit
	analyzer := risk.NewAnalyzer(riskCfg)

	proc := processor.New(txQueue, processor.Config{
		ExternalFeeFixed: externalFee,
		MaxRetries:       cfg.MaxRetries,
		OutcomeTopic:     cfg.KafkaTopic,
	}, analyzer, auditLog, publisher, lg)

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	http.HandleFunc("/clients", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			ID       string `json:"id"`
			FullName string `json:"full_name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		client := bank.NewClient(req.ID, req.FullName, map[string]string{"email": req.Email})
		directory.AddClient(client, req.Password)
		w.WriteHeader(http.StatusCreated)
	})

	http.HandleFunc("/accounts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			ClientID            string          `json:"client_id"`
			Type                string          `json:"type"`
			Currency            string          `json:"currency"`
			InitialBalance      decimal.Decimal `json:"initial_balance"`
			MinBalance          decimal.Decimal `json:"min_balance"`
			MonthlyInterestRate decimal.Decimal `json:"monthly_interest_rate"`
			OverdraftLimit      decimal.Decimal `json:"overdraft_limit"`
			WithdrawFee         decimal.Decimal `json:"withdraw_fee"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		accountID, err := directory.OpenAccount(req.ClientID, bank.AccountSpec{
			Type:                account.Type(req.Type),
			Currency:            models.Currency(req.Currency),
			InitialBalance:      req.InitialBalance,
			MinBalance:          req.MinBalance,
			MonthlyInterestRate: req.MonthlyInterestRate,
			OverdraftLimit:      req.OverdraftLimit,
			WithdrawFee:         req.WithdrawFee,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"account_id": accountID})
	})

	http.HandleFunc("/accounts/balance", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		accountID := r.URL.Query().Get("account_id")
		if accountID == "" {
			http.Error(w, "account_id is a mandatory field", http.StatusBadRequest)
			return
		}
		acct, ok := directory.Account(accountID)
		if !ok {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			AccountID string          `json:"account_id"`
			Balance   decimal.Decimal `json:"balance"`
			Currency  string          `json:"currency"`
		}{accountID, acct.Balance(), string(acct.Currency())})
	})

	http.HandleFunc("/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			Amount           decimal.Decimal `json:"amount"`
			Currency         string          `json:"currency"`
			SenderAccount    string          `json:"sender_account"`
			RecipientAccount string          `json:"recipient_account"`
			FeeFixed         decimal.Decimal `json:"fee_fixed"`
			External         bool            `json:"external"`
			Priority         int             `json:"priority"`
			ScheduledAt      time.Time       `json:"scheduled_at"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		var sender, recipient models.Account
		if req.SenderAccount != "" {
			acct, ok := directory.Account(req.SenderAccount)
			if !ok {
				http.Error(w, "sender account not found", http.StatusNotFound)
				return
			}
			sender = acct
		}
		if req.RecipientAccount != "" {
			acct, ok := directory.Account(req.RecipientAccount)
			if !ok {
				http.Error(w, "recipient account not found", http.StatusNotFound)
				return
			}
			recipient = acct
		}

		scheduledAt := req.ScheduledAt
		if scheduledAt.IsZero() {
			scheduledAt = time.Now().UTC()
		}
		tx := models.NewTransaction(uuid.NewString(), req.Amount, models.Currency(req.Currency), sender, recipient, scheduledAt)
		tx.FeeFixed = req.FeeFixed
		tx.External = req.External
		tx.Priority = req.Priority

		if err := txQueue.Add(tx); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"transaction_id": tx.ID})
	})

	http.HandleFunc("/transactions/cancel", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			ID     string `json:"id"`
			Reason string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Reason == "" {
			req.Reason = "cancelled_by_user"
		}

		if !txQueue.Cancel(req.ID, req.Reason) {
			http.Error(w, "transaction not cancellable", http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	http.HandleFunc("/process", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		processed := proc.RunAll(time.Now().UTC(), 1000)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{
			"processed": processed,
			"pending":   txQueue.Len(),
		})
	})

	http.HandleFunc("/audit/records", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(auditLog.Records())
	})

	lg.Infow("starting server", "address", cfg.HTTPAddress)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddress, nil))
}
