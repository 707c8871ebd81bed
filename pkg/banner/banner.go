package banner

import (
	"fmt"

	"triaged/pkg/config"
)

const banner = `
████████╗██████╗ ██╗ █████╗  ██████╗ ███████╗██████╗
╚══██╔══╝██╔══██╗██║██╔══██╗██╔════╝ ██╔════╝██╔══██╗
   ██║   ██████╔╝██║███████║██║  ███╗█████╗  ██║  ██║
   ██║   ██╔══██╗██║██╔══██║██║   ██║██╔══╝  ██║  ██║
   ██║   ██║  ██║██║██║  ██║╚██████╔╝███████╗██████╔╝
   ╚═╝   ╚═╝  ╚═╝╚═╝╚═╝  ╚═╝ ╚═════╝ ╚══════╝╚═════╝
`

// Print renders the startup banner with the effective config summary.
func Print(cfg *config.Config, source, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s (%s)\n", cfg.Addr(), cfg.Server.Engine)
	fmt.Printf("DB Path:  %s\n", cfg.Server.DBPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if source != "" {
		fmt.Printf("Config:   %s\n", source)
	}

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/interactions - Submit an interaction for triage (JSON: interaction_id, text, channel, customer_identifier)")
	fmt.Println("GET  /v1/decisions/{interaction_id} - Fetch the recorded decision")
	fmt.Println("GET  /v1/conversations/{id}?limit=<n> - Conversation with recent interactions")
	fmt.Println("POST /v1/conversations/{id}/resolve | /reopen - Lifecycle operations")
	fmt.Println("GET  /v1/customers/{id} | /v1/customers/{id}/history - Customer profile and past conversations")
	fmt.Println("GET  /admin/stats | /admin/pending - Operational counters and pending handoffs")

	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost:%d/v1/interactions' -d '{\"text\":\"I was charged twice\",\"channel\":\"email\",\"customer_identifier\":{\"type\":\"email\",\"value\":\"a@b.com\"}}'\n", cfg.Server.Port)
	fmt.Printf("curl 'http://localhost:%d/v1/customers/cust-1'\n", cfg.Server.Port)

	fmt.Println("\n== Production? =================================================")
	be := len(cfg.Security.APIKeys.Backend)
	ak := len(cfg.Security.APIKeys.Admin)
	if be > 0 {
		fmt.Printf("- Backend API keys: OK (%d)\n", be)
	} else {
		fmt.Println("- Backend API keys: MISSING (API runs open, dev only)")
	}
	if ak > 0 {
		fmt.Printf("- Admin API keys: OK (%d)\n", ak)
	} else {
		fmt.Println("- Admin API keys: MISSING (required for admin endpoints)")
	}

	if cfg.Server.TLS.CertFile != "" && cfg.Server.TLS.KeyFile != "" {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured (terminate TLS upstream or set server.tls)")
	}

	if cfg.Kafka.Enabled {
		fmt.Printf("- Kafka: enabled (brokers=%d topic=%s group=%s)\n",
			len(cfg.Kafka.Brokers), cfg.Kafka.InteractionsTopic, cfg.Kafka.GroupID)
	} else {
		fmt.Println("- Kafka: disabled (HTTP ingestion only)")
	}

	if cfg.Sweeper.Enabled {
		fmt.Printf("- Sweeper: enabled (cron=%s idle_resolve_after=%s)\n",
			cfg.Sweeper.Cron, cfg.Sweeper.IdleResolveAfter.Duration())
	} else {
		fmt.Println("- Sweeper: disabled (idle conversations stay open, pending handoffs are not retried)")
	}

	fmt.Println("\n== Logs: =================================================")
}
