// Package main implements the interactive TalkScribe shell: login and
// registration, audio upload, transcript viewing, AI chat, and audio
// analysis against a remote TalkScribe service.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/samber/do/v2"

	"github.com/talkscribe/talkscribe-go/internal/client/api"
	"github.com/talkscribe/talkscribe-go/internal/client/session"
	"github.com/talkscribe/talkscribe-go/internal/client/state"
	"github.com/talkscribe/talkscribe-go/internal/client/token"
	"github.com/talkscribe/talkscribe-go/internal/config"
	"github.com/talkscribe/talkscribe-go/internal/format"
	"github.com/talkscribe/talkscribe-go/internal/logger"
	"github.com/talkscribe/talkscribe-go/internal/models"
)

const autoRefreshInterval = 10 * time.Second

var (
	version   string
	buildDate string
)

// shell bundles the injected components the command loop works with.
type shell struct {
	opts    *config.Options
	session *session.Manager
	tokens  *token.Store
	files   *state.AudioFiles
	texts   *state.Transcriptions
	chats   *state.Conversations

	// analyses accumulates results of the analyze command. Analyses are
	// not id-deduplicated, so this is a plain append-only list.
	analyses []models.AudioAnalysis
}

func main() {
	showVer := flag.Bool("version", false, "show build version and date")

	opts, err := config.Parse()
	if err != nil {
		log.Fatal(err)
	}
	if *showVer {
		fmt.Printf("TalkScribe Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	lg := logger.New()
	if err := lg.Init(opts.LogLevel); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Log.Sync() }()

	injector := do.New()
	do.ProvideValue(injector, opts)
	do.ProvideValue(injector, lg.Log)
	token.RegisterDI(injector)
	api.RegisterDI(injector)
	session.RegisterDI(injector)
	state.RegisterDI(injector)

	sh := &shell{
		opts:    opts,
		session: do.MustInvoke[*session.Manager](injector),
		tokens:  do.MustInvoke[*token.Store](injector),
		files:   do.MustInvoke[*state.AudioFiles](injector),
		texts:   do.MustInvoke[*state.Transcriptions](injector),
		chats:   do.MustInvoke[*state.Conversations](injector),
	}

	ctx := context.Background()
	if st := sh.session.CheckAuth(ctx); st.Auth == models.StateAuthenticated {
		fmt.Printf("Logged in as %s\n", st.User.Email)
	} else {
		fmt.Println("Not logged in. Use 'login' or 'register'.")
	}

	sh.files.StartAutoRefresh(ctx, autoRefreshInterval)
	sh.repl(ctx)
}

// repl runs the interactive loop, accepting commands until exit or EOF.
func (s *shell) repl(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("talkscribe> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			printHelp()
		case "register":
			s.register(ctx, scanner)
		case "login":
			s.login(ctx, scanner)
		case "logout":
			s.logout(ctx)
		case "whoami":
			s.whoami()
		case "upload":
			s.upload(ctx, args[1:])
		case "files":
			s.listFiles(ctx)
		case "transcript":
			s.transcript(ctx, args[1:])
		case "chat":
			s.chat(ctx, nil, args[1:])
		case "reply":
			s.reply(ctx, args[1:])
		case "chats":
			s.listChats(ctx)
		case "conversation":
			s.conversation(ctx, args[1:])
		case "analyze":
			s.analyze(ctx, args[1:])
		case "analyses":
			s.listAnalyses(ctx, args[1:])
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func printHelp() {
	fmt.Println(`Available commands:
  register                      create an account
  login                         authenticate
  logout                        end the session
  whoami                        show the current user and token expiry
  upload <path> [path...]       upload audio files (stops at first failure)
  files                         list uploaded files
  transcript <audio-id>         show the transcription of a file
  chat <message...>             start a new AI conversation
  reply <conv-id> <message...>  continue a conversation
  chats                         list conversations
  conversation <conv-id>        show a conversation's history
  analyze <audio-id> <type>     run an analysis (sentiment|keywords|summary|topics)
  analyses <audio-id>           list analyses of a file
  exit                          quit`)
}

func (s *shell) register(ctx context.Context, scanner *bufio.Scanner) {
	p := api.RegisterParams{
		Email:     promptLine(scanner, "Email: "),
		Password:  promptLine(scanner, "Password: "),
		Username:  promptLine(scanner, "Username (optional): "),
		FirstName: promptLine(scanner, "First name (optional): "),
		LastName:  promptLine(scanner, "Last name (optional): "),
	}
	user, err := s.session.Register(ctx, p)
	if err != nil {
		s.printError(err)
		return
	}
	fmt.Printf("Welcome, %s\n", user.Email)
}

func (s *shell) login(ctx context.Context, scanner *bufio.Scanner) {
	email := promptLine(scanner, "Email: ")
	password := promptLine(scanner, "Password: ")
	user, err := s.session.Login(ctx, email, password)
	if err != nil {
		s.printError(err)
		return
	}
	fmt.Printf("Logged in as %s\n", user.Email)
}

func (s *shell) logout(ctx context.Context) {
	if err := s.session.Logout(ctx); err != nil {
		fmt.Println("Server-side logout failed; local session cleared anyway.")
		return
	}
	fmt.Println("Logged out")
}

func (s *shell) whoami() {
	user := s.session.CurrentUser()
	if user == nil {
		fmt.Println("Not logged in")
		return
	}
	fmt.Printf("ID: %d\nEmail: %s\n", user.ID, user.Email)
	if user.Username != "" {
		fmt.Printf("Username: %s\n", user.Username)
	}
	if info, err := token.Inspect(s.tokens.Get(token.Access)); err == nil && !info.ExpiresAt.IsZero() {
		fmt.Printf("Access token expires: %s\n", info.ExpiresAt.Format(time.RFC1123))
	}
}

// upload sends each named file in order and stops at the first failure, so
// a broken session does not burn through the remaining files.
func (s *shell) upload(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		fmt.Println("Usage: upload <path> [path...]")
		return
	}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			fmt.Printf("Cannot open %s: %v\n", path, err)
			return
		}
		file, err := s.files.Upload(ctx, filepath.Base(path), f, s.opts.Language)
		_ = f.Close()
		if err != nil {
			s.printError(err)
			return
		}
		fmt.Printf("Uploaded %s (id=%d, %s)\n", file.FileName, file.ID, format.FileSize(file.FileSize))
	}
}

func (s *shell) listFiles(ctx context.Context) {
	if err := s.files.Refresh(ctx); err != nil {
		s.printError(err)
		return
	}
	files := s.files.All()
	if len(files) == 0 {
		fmt.Println("No audio files")
		return
	}
	for _, f := range files {
		line := fmt.Sprintf("%4d  %-30s %10s  %s%s%s",
			f.ID, f.FileName, format.FileSize(f.FileSize),
			format.StatusColor(f.Status), format.StatusText(f.Status), format.ColorReset)
		if f.Duration > 0 {
			line += "  " + format.Duration(f.Duration)
		}
		fmt.Println(line)
	}
}

func (s *shell) transcript(ctx context.Context, args []string) {
	id, ok := parseID(args, "Usage: transcript <audio-id>")
	if !ok {
		return
	}
	t, err := s.texts.Fetch(ctx, id)
	if err != nil {
		s.printError(err)
		return
	}
	fmt.Printf("%s (%s", t.AudioFile.FileName, t.Language)
	if t.Confidence > 0 {
		fmt.Printf(", confidence %.0f%%", t.Confidence*100)
	}
	fmt.Printf(")\n%s\n", t.Text)
}

func (s *shell) chat(ctx context.Context, conversationID *int64, words []string) {
	if len(words) == 0 {
		fmt.Println("Usage: chat <message...>")
		return
	}
	conv, err := s.chats.Send(ctx, strings.Join(words, " "), conversationID, nil)
	if err != nil {
		s.printError(err)
		return
	}
	if n := len(conv.Messages); n > 0 {
		last := conv.Messages[n-1]
		fmt.Printf("[%d] %s: %s\n", conv.ID, last.Role, last.Content)
	}
}

func (s *shell) reply(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: reply <conv-id> <message...>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Usage: reply <conv-id> <message...>")
		return
	}
	s.chat(ctx, &id, args[1:])
}

func (s *shell) listChats(ctx context.Context) {
	if err := s.chats.Refresh(ctx); err != nil {
		s.printError(err)
		return
	}
	convs := s.chats.All()
	if len(convs) == 0 {
		fmt.Println("No conversations")
		return
	}
	for _, c := range convs {
		fmt.Printf("%4d  %-40s %d messages\n", c.ID, c.Title, c.MessageCount)
	}
}

func (s *shell) conversation(ctx context.Context, args []string) {
	id, ok := parseID(args, "Usage: conversation <conv-id>")
	if !ok {
		return
	}
	conv, err := s.chats.Fetch(ctx, id)
	if err != nil {
		s.printError(err)
		return
	}
	fmt.Println(conv.Title)
	for _, m := range conv.Messages {
		fmt.Printf("  %s: %s\n", m.Role, m.Content)
	}
}

func (s *shell) analyze(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: analyze <audio-id> <sentiment|keywords|summary|topics>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Usage: analyze <audio-id> <sentiment|keywords|summary|topics>")
		return
	}
	a, err := s.files.Analyze(ctx, id, models.AnalysisType(args[1]))
	if err != nil {
		s.printError(err)
		return
	}
	s.analyses = append(s.analyses, a)
	fmt.Printf("[%s] %s\n", a.Type, string(a.Result))
}

func (s *shell) listAnalyses(ctx context.Context, args []string) {
	id, ok := parseID(args, "Usage: analyses <audio-id>")
	if !ok {
		return
	}
	list, err := s.files.Analyses(ctx, id)
	if err != nil {
		s.printError(err)
		return
	}
	if len(list) == 0 {
		fmt.Println("No analyses")
		return
	}
	for _, a := range list {
		fmt.Printf("%4d  [%s] %s\n", a.ID, a.Type, string(a.Result))
	}
}

func (s *shell) printError(err error) {
	if errors.Is(err, api.ErrUnauthenticated) {
		fmt.Println("Session expired. Please login again.")
		return
	}
	fmt.Println("Error:", err)
}

func parseID(args []string, usage string) (int64, bool) {
	if len(args) < 1 {
		fmt.Println(usage)
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println(usage)
		return 0, false
	}
	return id, true
}
