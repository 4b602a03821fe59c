// Command devtoken prints an access token for local testing of the ticket
// API.  It signs with JWT_SECRET from the same configuration the server
// reads.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/iliyamo/event-ticketing/internal/seatkey"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

type tokenConfig struct {
	JWTSecret string `env:"JWT_SECRET" env-required:"true"`
}

func main() {
	login := flag.String("login", "", "login id placed in the sub claim")
	registerID := flag.Uint64("rid", 0, "register id placed in the rid claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if err := seatkey.ValidateLoginID(*login); err != nil {
		fmt.Fprintf(os.Stderr, "devtoken: %v\n", err)
		os.Exit(2)
	}

	_ = godotenv.Load()
	var cfg tokenConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "devtoken: %v\n", err)
		os.Exit(1)
	}

	tok, err := utils.NewAccessToken(cfg.JWTSecret, *login, *registerID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devtoken: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok.Token)
}
