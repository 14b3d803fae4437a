package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/arne-braeckman/eventrunner-integrations/internal/config"
	"github.com/arne-braeckman/eventrunner-integrations/internal/models"
	"github.com/arne-braeckman/eventrunner-integrations/internal/platforms"
	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("🔍 EventRunner Integrations - Platform Connectivity Check")
	fmt.Println("=========================================================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("\n📡 Testing platform connections...")
	fmt.Println(strings.Repeat("-", 40))

	for _, platform := range models.AllPlatforms {
		checkPlatform(ctx, platform, cfg)
	}

	fmt.Println("\n✅ Platform connectivity check completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Configure missing credentials in .env file")
	fmt.Println("   • Run the service with: make run")
}

func checkPlatform(ctx context.Context, platform models.Platform, cfg *config.Config) {
	fmt.Printf("🔸 Testing %s... ", platform)

	client, err := platforms.NewClient(platform, cfg.Credentials(platform))
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	if !client.ValidateConfig() {
		fmt.Printf("⚠️  DISABLED (missing credentials)\n")
		return
	}

	if err := client.TestConnection(ctx); err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	fmt.Printf("✅ CONNECTED\n")
}
