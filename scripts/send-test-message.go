package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"portfolio-contact-backend/config"
	"portfolio-contact-backend/internal/domain"
	"portfolio-contact-backend/pkg/email"
	"portfolio-contact-backend/pkg/relay"
)

// Sends one contact message through the configured delivery driver.
// Usage: go run scripts/send-test-message.go -name Al -email a@b.co -subject "Hello there" -message "This is a test message."
func main() {
	name := flag.String("name", "Test Sender", "sender name")
	from := flag.String("email", "", "sender reply-to address")
	subject := flag.String("subject", "Contact pipeline test", "subject line")
	message := flag.String("message", "This is a test message from send-test-message.", "message body")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	msg, fieldErrors := domain.FormInput{
		Name:    *name,
		Email:   *from,
		Subject: *subject,
		Message: *message,
	}.Validate()
	if len(fieldErrors) > 0 {
		for field, problem := range fieldErrors {
			fmt.Fprintf(os.Stderr, "%s: %s\n", field, problem)
		}
		os.Exit(2)
	}

	var client domain.DeliveryClient = relay.NewClient(cfg)
	if cfg.DeliveryDriver == config.DriverSMTP {
		client = email.NewEmailService(cfg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Printf("Sending via %s...\n", cfg.DeliveryDriver)
	if err := client.Send(ctx, msg); err != nil {
		fmt.Fprintf(os.Stderr, "delivery failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Message delivered")
}
