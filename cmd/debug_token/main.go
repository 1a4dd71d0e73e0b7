package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mwork/socialgraph/internal/config"
	"github.com/mwork/socialgraph/internal/domain/contactgraph"
	"github.com/mwork/socialgraph/internal/pkg/jwt"
)

// Prints a bearer token for local testing. Tokens are normally issued by the
// auth service sharing JWT_SECRET. With -phones it also prints the
// phone_number_hashes a client would upload to /contacts/sync.
func main() {
	userFlag := flag.String("user", "", "user id (random when empty)")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	phones := flag.String("phones", "", "comma separated phone numbers to hash")
	flag.Parse()

	cfg := config.Load()
	if cfg.IsProduction() {
		log.Fatal("debug_token must not run in production")
	}

	userID := uuid.New()
	if *userFlag != "" {
		id, err := uuid.Parse(*userFlag)
		if err != nil {
			log.Fatalf("Invalid user id: %v", err)
		}
		userID = id
	}

	token, err := jwt.NewService(cfg.JWTSecret, *ttl).GenerateAccessToken(userID, "user", false)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	fmt.Println("user_id:", userID)
	fmt.Println("Authorization: Bearer " + token)

	if *phones != "" {
		hashes, err := contactHashes(*phones)
		if err != nil {
			log.Fatal(err)
		}
		for _, h := range hashes {
			fmt.Println("phone_number_hash:", h)
		}
	}
}

// contactHashes hashes each comma separated number with
// contactgraph.HashPhoneNumber.
func contactHashes(phones string) ([]string, error) {
	var hashes []string
	for _, p := range strings.Split(phones, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		h := contactgraph.HashPhoneNumber(p)
		if h == "" {
			return nil, fmt.Errorf("phone number %q has no digits", p)
		}
		hashes = append(hashes, h)
	}
	return hashes, nil
}
