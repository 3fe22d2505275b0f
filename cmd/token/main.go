// Command token mints an API token for a phone number.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"expense-bot/internal/models"
	"expense-bot/pkg/auth"
	"expense-bot/pkg/config"
)

func main() {
	phone := flag.String("phone", "", "phone number the token authenticates, e.g. +5511987654321")
	flag.Parse()

	normalized := models.NormalizePhone(*phone)
	if normalized == "" {
		fmt.Fprintln(os.Stderr, "usage: token -phone +5511987654321")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)
	token, err := jwtManager.GenerateToken(normalized)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "valid for %s\n", jwtManager.GetTokenDuration())
}
