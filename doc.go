// Package ytbackup backs up, audits, and bulk-edits a YouTube account's
// subscriptions and Watch Later playlist.
//
// It talks to the YouTube Data API v3 on the user's behalf after an OAuth
// consent flow, keeps everything it learns in a local JSON data store, and
// exposes the operations both as a library and through an HTTP API.
//
// Overview
//
// The high-level entry point is the service package:
//
//   - ListSubscriptions: Fetch every channel the account subscribes to
//   - ExportSubscriptions: Serialize subscriptions to CSV or JSON
//   - ImportSubscriptions: Subscribe to every channel in an export file
//   - BulkUnsubscribe: Unsubscribe from many channels with pacing and retries
//   - RefreshWatchLater: Snapshot the Watch Later playlist with durations
//   - MoveVideo: Move a video from Watch Later into another playlist
//   - ClassifyVideo: Suggest a target playlist for a video by its title
//
// Quick Start
//
// Build a service and export subscriptions:
//
//	store, err := storage.NewJSONStore("ytbackup-data.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	granter := auth.NewBrowserGranter(auth.BrowserGranterConfig{
//		ClientID: os.Getenv("YTBACKUP_OAUTH_CLIENT_ID"),
//	}, logger)
//	tokens := auth.NewManager(store, granter)
//	api := youtube.NewClient(tokens)
//	queue := jobs.NewQueue(store, jobs.DefaultOptions())
//
//	svc := service.New(store, api, tokens, queue)
//	data, err := svc.ExportSubscriptions(ctx, "csv")
//
// Configuration
//
// ytbackup loads settings from multiple sources:
//
//   1. Environment variables (highest priority)
//   2. Config file (ytbackup.json or ~/.config/ytbackup/ytbackup.json)
//   3. Default values (lowest priority)
//
// Environment variables:
//
//   - YTBACKUP_LISTEN_ADDR: HTTP server bind address
//   - YTBACKUP_DATA_PATH: Path to the JSON data store
//   - YTBACKUP_LOG_LEVEL: zerolog level (debug, info, warn, error)
//   - YTBACKUP_OAUTH_CLIENT_ID: Google OAuth client identifier
//   - YTBACKUP_OAUTH_CLIENT_SECRET: Google OAuth client secret
//   - YTBACKUP_MAX_RETRIES: Retry budget for remote API calls
//   - YTBACKUP_BASE_BACKOFF: Initial retry backoff duration
//   - YTBACKUP_MUTATION_INTERVAL: Pacing between bulk mutations
//
// Error Handling
//
// All operations return errors that implement standard Go error handling:
//
// Checking for sentinel errors:
//
//	if errors.Is(err, ytbackup.ErrNotFound) {
//		fmt.Println("Nothing stored yet")
//	}
//
// Extracting wrapped error details:
//
//	var authErr *ytbackup.AuthError
//	if errors.As(err, &authErr) {
//		fmt.Printf("Sign-in failed: %s\n", authErr.Hint)
//	}
//
// Sub-packages
//
// For more control, use the sub-packages directly:
//
//   - service: High-level operations tying the rest together
//   - auth: OAuth consent flow and token caching
//   - youtube: YouTube Data API v3 client
//   - bulk: Paced batch mutation runner
//   - jobs: Persistent job queue
//   - export: CSV/JSON export and lenient import parsing
//   - classify: Title-based playlist suggestions
//   - storage: Persistent data storage
//   - config: Configuration management
//   - retry: Exponential backoff retry logic
//   - server: HTTP API over the service layer
//
// Dependencies
//
// ytbackup requires a Google Cloud OAuth client with the YouTube Data API
// enabled. Create one at https://console.cloud.google.com/apis/credentials
// and pass its ID via YTBACKUP_OAUTH_CLIENT_ID.
package ytbackup
