package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/zhakasov-bm/lms-backend/internal/config"
	"github.com/zhakasov-bm/lms-backend/internal/logger"
	"github.com/zhakasov-bm/lms-backend/internal/model"
	"github.com/zhakasov-bm/lms-backend/internal/service"
	"golang.org/x/term"
)

// issue-token mints a bearer token for local testing and service accounts.
//
//	go run ./cmd/issue-token -user 42 -role TEACHER
//
// The signing secret comes from JWT_SECRET; with -prompt it is read from the
// terminal instead.
func main() {
	userFlag := flag.Int64("user", 0, "user id to embed in the token")
	roleFlag := flag.String("role", "", "ADMIN, TEACHER or STUDENT")
	prompt := flag.Bool("prompt", false, "read the signing secret from the terminal")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	userID := *userFlag
	if userID == 0 {
		fmt.Print("Enter User ID: ")
		raw, _ := reader.ReadString('\n')
		p, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || p <= 0 {
			fmt.Println("Error: User ID must be a positive number")
			os.Exit(1)
		}
		userID = p
	}

	role := model.Role(strings.ToUpper(strings.TrimSpace(*roleFlag)))
	if role == "" {
		fmt.Print("Enter Role (default STUDENT): ")
		raw, _ := reader.ReadString('\n')
		role = model.Role(strings.ToUpper(strings.TrimSpace(raw)))
		if role == "" {
			role = model.RoleStudent
		}
	}
	if !role.Valid() {
		fmt.Printf("Error: unknown role %q\n", role)
		os.Exit(1)
	}

	secret := cfg.JWTSecret
	if *prompt {
		fmt.Print("Enter JWT Secret: ")
		b, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println() // Newline after secret input
		if err != nil {
			fmt.Println("Error reading secret")
			os.Exit(1)
		}
		secret = string(b)
	}
	if secret == "" {
		fmt.Println("Error: JWT secret is empty")
		os.Exit(1)
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	authService := service.NewAuthService(secret, cfg.JWTExpiry)
	token, err := authService.GenerateToken(userID, role)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sign token")
	}

	log.Debug().Int64("user_id", userID).Str("role", string(role)).Dur("expiry", cfg.JWTExpiry).Msg("Token issued")
	fmt.Println(token)
}
