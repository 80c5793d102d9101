// Command jobtrackctl is a small operator tool that talks straight to the
// database: it seeds accounts and prints per-user application stats.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/yourorg/jobtrack/internal/domain"
	"github.com/yourorg/jobtrack/internal/infrastructure/logger"
	"github.com/yourorg/jobtrack/internal/repository"
	"github.com/yourorg/jobtrack/pkg/config"
	"github.com/yourorg/jobtrack/pkg/database"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "create-user":
		createUser(args)
	case "stats":
		showStats(args)
	case "migrate":
		migrate()
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: jobtrackctl <command>

Commands:
  create-user -username <name> -password <pw>   create an account
  stats -username <name>                        print application stats for a user
  migrate                                       create the schema
  help                                          show this help`)
}

func connect(ctx context.Context) *database.ConnectionPool {
	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	log := logger.NewLogger("error")
	pool, err := database.NewConnectionPool(ctx, &database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}, log)
	if err != nil {
		fatal("failed to connect to database: %v", err)
	}
	return pool
}

func createUser(args []string) {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	username := fs.String("username", "", "username for the new account")
	password := fs.String("password", "", "plaintext password, hashed before storage")
	fs.Parse(args)

	if *username == "" || *password == "" {
		fatal("create-user requires -username and -password")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool := connect(ctx)
	defer pool.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		fatal("failed to hash password: %v", err)
	}

	users := repository.NewPostgresUserRepository(pool.GetDB(), nil)
	user := &domain.User{Username: *username, PasswordHash: string(hash)}
	if err := users.Create(ctx, user); err != nil {
		fatal("failed to create user: %v", err)
	}

	fmt.Printf("created user %q with id %d\n", user.Username, user.ID)
}

func showStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	username := fs.String("username", "", "user to report on")
	fs.Parse(args)

	if *username == "" {
		fatal("stats requires -username")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool := connect(ctx)
	defer pool.Close()

	users := repository.NewPostgresUserRepository(pool.GetDB(), nil)
	user, err := users.GetByUsername(ctx, *username)
	if err != nil {
		fatal("failed to look up user: %v", err)
	}

	apps := repository.NewPostgresApplicationRepository(pool.GetDB(), nil)
	counts, err := apps.StatusCounts(ctx, user.ID)
	if err != nil {
		fatal("failed to count applications: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tCOUNT")
	total := 0
	for _, status := range domain.Statuses {
		fmt.Fprintf(w, "%s\t%d\n", status, counts[status])
		total += counts[status]
	}
	fmt.Fprintf(w, "total\t%d\n", total)
	w.Flush()
}

func migrate() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool := connect(ctx)
	defer pool.Close()

	if err := pool.Migrate(ctx); err != nil {
		fatal("migration failed: %v", err)
	}
	fmt.Println("schema up to date")
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
