package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	sqliteadapter "github.com/ericfisherdev/chill/internal/adapter/driven/sqlite"
)

func main() {
	os.Exit(check(os.Getenv("CHILL_DB_PATH")))
}

// check opens the chat database and verifies both connections and the
// schema. It never creates a database: a missing file is unhealthy.
func check(dbPath string) int {
	if dbPath == "" {
		dbPath = "chill.db"
	}
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	db, err := sqliteadapter.NewDB(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck: %v\n", err)
		return 1
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			fmt.Fprintln(os.Stderr, "healthcheck: timed out")
		} else {
			fmt.Fprintf(os.Stderr, "healthcheck: %v\n", err)
		}
		return 1
	}
	return 0
}
