package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/lipgloss"

	"comercia-backend/cmd"
	"comercia-backend/internal/catalog"
	"comercia-backend/internal/chat"
	"comercia-backend/internal/gateway"
	"comercia-backend/internal/storage"
)

type ChatConfig struct {
	GatewayURL string `env:"GATEWAY_URL" envDefault:"http://localhost:8001"`
	DataDir    string `env:"CHAT_DATA_DIR"`
}

var (
	assistantStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	priceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

func main() {
	cmd.LoadEnvFile()

	var cfg ChatConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("could not resolve home directory: %v", err)
		}
		cfg.DataDir = filepath.Join(home, ".comercia")
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("could not create data directory: %v", err)
	}

	primary, err := storage.NewSQLiteStore(filepath.Join(cfg.DataDir, "chat.db"))
	if err != nil {
		log.Fatalf("could not open local database: %v", err)
	}
	fallback, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("could not open fallback store: %v", err)
	}
	store := storage.NewFallbackStore(primary, fallback, func(op string, err error) {
		fmt.Println(noticeStyle.Render(fmt.Sprintf("(armazenamento local degradado: %s)", op)))
	})

	recorder := &chat.FileRecorder{}
	controller := chat.NewController(store, gateway.NewClient(cfg.GatewayURL),
		chat.WithRecorder(recorder),
		chat.WithNotifier(func(text string) {
			fmt.Println(noticeStyle.Render("(" + text + ")"))
		}),
	)

	ctx := context.Background()
	if err := controller.Init(ctx); err != nil {
		log.Fatalf("could not initialize conversation: %v", err)
	}
	if controller.Degraded() {
		fmt.Println(noticeStyle.Render("(sessão local, backend indisponível)"))
	}

	printed := 0
	printed = printTranscript(controller, printed)

	fmt.Println(noticeStyle.Render("comandos: /audio <arquivo>, /attach <arquivo>, /exam <nome>, /doctors <especialidade>, /clear, /quit"))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(userStyle.Render("você> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "/quit":
			return
		case line == "/clear":
			controller.ClearConversation(ctx)
			printed = 0
		case strings.HasPrefix(line, "/audio "):
			recorder.Path = strings.TrimSpace(strings.TrimPrefix(line, "/audio "))
			if err := controller.StartRecording(ctx); err != nil {
				fmt.Println(noticeStyle.Render("(" + err.Error() + ")"))
				continue
			}
			if err := controller.StopRecording(ctx); err != nil {
				fmt.Println(noticeStyle.Render("(" + err.Error() + ")"))
			}
		case strings.HasPrefix(line, "/attach "):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/attach "))
			fmt.Print(userStyle.Render("mensagem> "))
			if !scanner.Scan() {
				return
			}
			message := strings.TrimSpace(scanner.Text())
			if err := controller.Send(ctx, message, []chat.AttachmentInput{{Path: path}}); err != nil {
				fmt.Println(noticeStyle.Render("(" + err.Error() + ")"))
			}
		case strings.HasPrefix(line, "/exam "):
			lookupExam(strings.TrimSpace(strings.TrimPrefix(line, "/exam ")))
		case strings.HasPrefix(line, "/doctors "):
			lookupDoctors(strings.TrimSpace(strings.TrimPrefix(line, "/doctors ")))
		case line == "":
			// nothing to send
		default:
			if err := controller.Send(ctx, line, nil); err != nil {
				fmt.Println(noticeStyle.Render("(" + err.Error() + ")"))
			}
		}

		printed = printTranscript(controller, printed)
	}
}

func printTranscript(controller *chat.Controller, printed int) int {
	messages := controller.Messages()
	for _, m := range messages[printed:] {
		label := assistantStyle.Render("comercIA")
		if m.Role == storage.RoleUser {
			label = userStyle.Render("você")
		}
		fmt.Printf("%s: %s\n", label, m.Content)
		for _, att := range m.Attachments {
			fmt.Println(noticeStyle.Render(fmt.Sprintf("  [%s] %s", att.Kind, att.DisplayName)))
		}
	}
	return len(messages)
}

func lookupExam(query string) {
	exam, ok := catalog.FindExam(query)
	if !ok {
		fmt.Println(noticeStyle.Render("(exame não encontrado)"))
		return
	}
	fmt.Printf("%s: %s\n", exam.Name, priceStyle.Render(catalog.FormatPrice(exam.Price)))
}

func lookupDoctors(specialty string) {
	doctors := catalog.FindDoctorsBySpecialty(specialty)
	if len(doctors) == 0 {
		fmt.Println(noticeStyle.Render("(nenhum médico encontrado para essa especialidade)"))
		return
	}
	for _, d := range doctors {
		fmt.Printf("%s (%s) - %s\n", d.Name, d.Specialty, formatSchedule(d.Schedule))
	}
}

func formatSchedule(entries []catalog.ScheduleEntry) string {
	var parts []string
	for _, e := range entries {
		var ranges []string
		for _, r := range e.Ranges {
			ranges = append(ranges, r[0]+"-"+r[1])
		}
		parts = append(parts, e.Weekday+" "+strings.Join(ranges, ", "))
	}
	return strings.Join(parts, "; ")
}
