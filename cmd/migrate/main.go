package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"predict-api/internal/database"
	"predict-api/internal/shared"

	_ "github.com/go-sql-driver/mysql"
)

func main() {
	DSN, err := shared.SafeEnv("DSN")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: DSN environment variable is required: %v\n", err)
		os.Exit(1)
	}

	migrationPath := filepath.Join("migrations", "create_prediction_table.sql")
	if len(os.Args) > 1 {
		migrationPath = os.Args[1]
	}

	migrationSQL, err := os.ReadFile(migrationPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading migration file %s: %v\n", migrationPath, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	db, err := database.Open(ctx, DSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	for _, stmt := range splitStatements(string(migrationSQL)) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			fmt.Fprintf(os.Stderr, "Error executing statement: %v\n", err)
			fmt.Fprintf(os.Stderr, "Statement: %s\n", stmt)
			os.Exit(1)
		}
	}

	fmt.Println("Migration completed successfully!")
}

// splitStatements splits on semicolons and drops comment lines.
func splitStatements(migrationSQL string) []string {
	var out []string
	for _, stmt := range strings.Split(migrationSQL, ";") {
		var cleanLines []string
		for _, line := range strings.Split(stmt, "\n") {
			trimmed := strings.TrimSpace(line)
			if !strings.HasPrefix(trimmed, "--") && trimmed != "" {
				cleanLines = append(cleanLines, line)
			}
		}
		if stmt = strings.Join(cleanLines, "\n"); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
