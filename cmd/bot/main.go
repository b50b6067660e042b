// cmd/bot/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pennywise/internal/config"
	"pennywise/internal/report"
	"pennywise/internal/storage/postgres"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.MustLoad()
	if cfg.TelegramToken == "" {
		slog.Error("TELEGRAM_BOT_TOKEN is not set")
		os.Exit(1)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DBConn)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := postgres.NewStorage(pool)
	reportSvc := report.NewService(store)

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		slog.Error("failed to initialize telegram bot", "error", err)
		os.Exit(1)
	}
	slog.Info("bot authorized", "username", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}

		chatID := update.Message.Chat.ID
		userID := update.Message.From.ID
		text := strings.TrimSpace(update.Message.Text)

		var msgText string
		switch {
		case text == "/start" || text == "/help":
			msgText = "💰 *Spending bot*\n\n" +
				"Commands:\n" +
				"`/month` — this month's spend by category\n" +
				"`/budgets` — budget usage for this month"

		case text == "/month":
			msgText = handleMonth(reportSvc, userID)

		case text == "/budgets":
			msgText = handleBudgets(reportSvc, userID)

		default:
			msgText = "Unknown command. Try /help"
		}

		msg := tgbotapi.NewMessage(chatID, msgText)
		msg.ParseMode = "Markdown"
		if _, err := bot.Send(msg); err != nil {
			slog.Error("failed to send message", "error", err, "chat_id", chatID)
		}
	}
}

func handleMonth(reportSvc *report.Service, userID int64) string {
	from, to, _ := report.MonthRange("", time.Now())

	summary, err := reportSvc.Overview(context.Background(), userID, from, to)
	if err != nil {
		slog.Error("overview failed", "error", err, "user_id", userID)
		return "❌ Error: " + err.Error()
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("📊 *Spending for %s*", from.Format("2006-01")))
	lines = append(lines, fmt.Sprintf("Total: $%s", summary.MonthCost.StringFixed(2)))
	for _, cs := range summary.ByCategory {
		lines = append(lines, fmt.Sprintf("- %s: $%s", cs.CategoryName, cs.Amount.StringFixed(2)))
	}
	if len(summary.ByCategory) == 0 {
		lines = append(lines, "📭 No categorized transactions yet")
	}
	return strings.Join(lines, "\n")
}

func handleBudgets(reportSvc *report.Service, userID int64) string {
	from, to, _ := report.MonthRange("", time.Now())

	budgets, err := reportSvc.Budgets(context.Background(), userID, from, to)
	if err != nil {
		slog.Error("budget report failed", "error", err, "user_id", userID)
		return "❌ Error: " + err.Error()
	}
	if len(budgets.Budgets) == 0 {
		return "📭 No budgets set up"
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("🎯 *Budgets for %s*", from.Format("2006-01")))
	for _, b := range budgets.Budgets {
		lines = append(lines, fmt.Sprintf("- %s: $%s of $%s (%s%%)",
			b.CategoryName, b.SpentAmount.StringFixed(2), b.MaxAmount.StringFixed(2), b.PercentageUsed.StringFixed(0)))
	}
	lines = append(lines, fmt.Sprintf("\nTotal: $%s of $%s",
		budgets.TotalSpent.StringFixed(2), budgets.TotalBudgeted.StringFixed(2)))
	return strings.Join(lines, "\n")
}
