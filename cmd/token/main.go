package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/Rrens/kb-assistant/internal/config"
	"github.com/Rrens/kb-assistant/internal/domain"
	"github.com/Rrens/kb-assistant/internal/security"
)

// token issues a bearer token for the operator routes (ingest, reindex,
// leave review).
func main() {
	subject := flag.String("subject", "", "reviewer name stored in the token")
	role := flag.String("role", security.RoleHR, "hr, manager or employee")
	ttl := flag.Duration("ttl", 0, "token lifetime; defaults to auth.access_token_ttl")
	flag.Parse()

	_ = godotenv.Load()

	req := domain.TokenRequest{Subject: *subject, Role: *role}
	if err := validator.New().Struct(req); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid token request: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	lifetime := cfg.Auth.AccessTokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	token, expires, err := security.NewJWTManager(cfg.Auth.JWTSecret, lifetime).GenerateAccessToken(req.Subject, req.Role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expires.Format(time.RFC3339))
}
