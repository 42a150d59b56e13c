// Command sessiongen выполняет интерактивный вход в Telegram и печатает
// строку сессии для переменной SESSION_STRING агента.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"telegram-forwarder/internal/adapters/telegram/core"
	"telegram-forwarder/internal/infra/config"
	"telegram-forwarder/internal/infra/logger"
	"telegram-forwarder/internal/infra/pr"
	"telegram-forwarder/internal/infra/storage"
	"telegram-forwarder/internal/infra/telegram/session"
)

const (
	banner         = "--- TELEGRAM SESSION GENERATOR ---"
	successMessage = "✅ LOGIN SUCCESSFUL!"
	missingCreds   = "Error: API_ID or API_HASH missing in environment."
)

func main() {
	envPath := flag.String("env", ".env", "path to .env file")
	outPath := flag.String("out", "", "also write the session string to this file (0600)")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	os.Exit(run(*envPath, *outPath, *logLevel))
}

func run(envPath, outPath, logLevel string) int {
	logger.Init(logLevel)
	defer logger.Close()

	creds, err := config.LoadCredentials(envPath)
	if err != nil {
		if errors.Is(err, config.ErrMissingCredentials) {
			pr.ErrPrintln(missingCreds)
		} else {
			pr.ErrPrintln("Error:", err)
		}
		return 1
	}

	pr.Println(banner)

	if err = pr.Init(); err != nil {
		pr.ErrPrintln("Error: init terminal:", err)
		return 1
	}
	defer pr.Close()
	logger.SetWriters(pr.Stdout(), pr.Stderr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// Ctrl+C во время ввода: закрываем stdin, чтобы readline вернул EOF.
	go func() {
		<-ctx.Done()
		pr.InterruptReadline()
	}()

	token, err := mint(ctx, creds)
	if err != nil {
		logger.Debug("login failed", zap.Error(err))
		pr.ErrPrintln("Error:", err)
		return 1
	}

	pr.Println()
	pr.Println(successMessage)
	pr.Println(token)

	if outPath != "" {
		if err = storage.AtomicWriteFile(outPath, []byte(token+"\n"), storage.SecretFilePerm); err != nil {
			pr.ErrPrintln("Error: write session file:", err)
			return 1
		}
		pr.Printf("Session saved to %s\n", outPath)
	}
	return 0
}

// mint логинится с пустой сессией и возвращает закодированную строку.
func mint(ctx context.Context, creds config.Credentials) (string, error) {
	store, err := session.NewStringStorage(ctx, "")
	if err != nil {
		return "", err
	}

	client := core.New(creds.APIID, creds.APIHash, core.Options{
		Storage: store,
		TestDC:  creds.TestDC,
	})

	err = client.Run(ctx, func(ctx context.Context) error {
		_, loginErr := core.Login(ctx, client, creds.PhoneNumber)
		return loginErr
	})
	if err != nil {
		return "", err
	}
	return store.Token()
}
