// calendar-auth-helper walks through the one-time OAuth2 authorization for
// Google Calendar sync and writes the resulting token file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: calendar-auth-helper <credentials.json> <token-output.json>")
	}
	credentialsFile := os.Args[1]
	tokenFile := os.Args[2]

	credentialsData, err := os.ReadFile(credentialsFile)
	if err != nil {
		log.Fatalf("Failed to read credentials file: %v", err)
	}
	config, err := google.ConfigFromJSON(credentialsData, calendar.CalendarEventsScope)
	if err != nil {
		log.Fatalf("Failed to parse credentials: %v", err)
	}
	config.RedirectURL = "urn:ietf:wg:oauth:2.0:oob"

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Google Calendar authorization\n")
	fmt.Printf("1. Open this URL in your browser:\n   %s\n", authURL)
	fmt.Printf("2. Authorize the application\n")
	fmt.Printf("3. Enter the authorization code: ")

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		log.Fatalf("Failed to read authorization code: %v", err)
	}

	token, err := config.Exchange(context.Background(), authCode)
	if err != nil {
		log.Fatalf("Failed to exchange code for token: %v", err)
	}

	out, err := os.OpenFile(tokenFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		log.Fatalf("Failed to create token file: %v", err)
	}
	defer func() { _ = out.Close() }()
	if err := json.NewEncoder(out).Encode(token); err != nil {
		log.Fatalf("Failed to write token: %v", err)
	}

	fmt.Printf("\nToken saved to %s\n", tokenFile)
	fmt.Printf("Set CALENDAR_CREDENTIALS_PATH=%s and CALENDAR_TOKEN_PATH=%s in your .env file.\n",
		credentialsFile, tokenFile)
}
