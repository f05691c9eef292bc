// Command ask is a terminal client for the PharmaRAG backend. It runs one
// workspace in-process and renders answers with their citations.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap/zapcore"

	"pharmarag-chat/internal/config"
	"pharmarag-chat/internal/pkg/logger"
	"pharmarag-chat/pkg/citation"
	"pharmarag-chat/pkg/conversation"
	"pharmarag-chat/pkg/ragclient"
	"pharmarag-chat/pkg/workspace"
)

const help = `commands:
  <question>        ask the assistant
  /cite N           open the document behind citation [N] of the last answer
  /names [page]     list medicine names
  /search QUERY     search medicine names
  /doc NAME         show a document
  /new              start a new conversation
  /list             list conversations
  /select N         switch to conversation N from /list
  /quit             exit`

var (
	citeColor   = color.New(color.FgCyan, color.Bold)
	sourceColor = color.New(color.FgHiBlack)
)

func main() {
	verbose := flag.Bool("v", false, "log client activity to stderr")
	flag.Parse()

	cfg := config.Load()
	level := zapcore.WarnLevel
	if *verbose {
		level = zapcore.DebugLevel
	}
	log := logger.NewConsoleLogger(level)
	defer log.Sync()

	backend := ragclient.New(cfg.Backend.BaseURL(), cfg.Backend.RequestTimeout)
	ws := workspace.New("terminal", workspace.Dependencies{
		Answerer:  backend,
		Names:     backend,
		Documents: backend,
		Logger:    log,
	}, workspace.Settings{
		PageSize:        cfg.Library.PageSize,
		MinSearchLength: cfg.Library.MinSearchLength,
		AnswerTimeout:   cfg.Chat.AnswerTimeout,
		LoadTimeout:     cfg.Backend.RequestTimeout,
	})
	defer ws.Close()

	color.Cyan("PharmaRAG (%s)", cfg.Backend.BaseURL())
	fmt.Println(conversation.WelcomeMessage)
	fmt.Println(help)

	ctx := context.Background()
	var lastReply string
	in := bufio.NewScanner(os.Stdin)
	for {
		color.New(color.FgYellow).Print("\n> ")
		if !in.Scan() {
			return
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		var err error
		switch cmd {
		case "/quit", "/exit":
			return
		case "/help":
			fmt.Println(help)
		case "/new":
			c := ws.NewConversation()
			color.Green("New conversation %s", c.ID)
		case "/list":
			listConversations(ws)
		case "/select":
			err = selectConversation(ws, arg)
		case "/names":
			page := 1
			if arg != "" {
				if page, err = strconv.Atoi(arg); err != nil {
					break
				}
			}
			if err = ws.LoadNames(ctx, page, ""); err == nil {
				printNames(ws)
			}
		case "/search":
			if err = ws.LoadNames(ctx, 1, arg); err == nil {
				printNames(ws)
			}
		case "/doc":
			if err = ws.OpenDocument(ctx, arg); err == nil {
				printDocument(ws)
			}
		case "/cite":
			err = cite(ctx, ws, lastReply, arg)
		default:
			var id string
			if id, err = ask(ctx, ws, line); err == nil {
				lastReply = id
			}
		}
		if err != nil {
			color.Red("error: %v", err)
		}
	}
}

// ask sends a question and returns the id of the reply.
func ask(ctx context.Context, ws *workspace.Workspace, question string) (string, error) {
	res, err := ws.Send(ctx, question)
	if err != nil {
		return "", err
	}
	if res.Failed {
		color.Red("%s", res.Reply.Content)
	} else {
		printAnswer(res.Reply)
	}
	return res.Reply.ID, nil
}

func printAnswer(msg conversation.Message) {
	segments, _ := citation.Split(msg.Content, msg.Sources)
	for _, seg := range segments {
		if seg.IsCitation() {
			citeColor.Print(seg.Text)
			continue
		}
		fmt.Print(seg.Text)
	}
	fmt.Println()

	for _, src := range msg.Sources {
		line := fmt.Sprintf("  [%s] %s", src.ID, citation.MedicineName(src))
		if src.Metadata.H2 != "" {
			line += " / " + src.Metadata.H2
		}
		sourceColor.Println(line)
	}
	if msg.Metadata != nil {
		sourceColor.Printf("  (%.1fs)\n", msg.Metadata.ProcessingTime.Seconds())
	}
}

func cite(ctx context.Context, ws *workspace.Workspace, messageID, arg string) error {
	if messageID == "" {
		return fmt.Errorf("no answer to cite yet")
	}
	n, err := strconv.Atoi(strings.Trim(arg, "[]"))
	if err != nil {
		return fmt.Errorf("citation number expected: %w", err)
	}
	if err := ws.ClickCitation(ctx, messageID, n, true); err != nil {
		return err
	}
	snap := ws.Snapshot()
	if snap.Document.SelectedName == "" {
		color.Yellow("[%d] has no source", n)
		return nil
	}
	printDocument(ws)
	if snap.Panel.Highlight != "" {
		color.New(color.FgGreen).Printf("\ncited: %q\n", snap.Panel.Highlight)
	}
	return nil
}

func printNames(ws *workspace.Workspace) {
	st := ws.Names()
	for _, name := range st.Names {
		fmt.Println("  " + name)
	}
	sourceColor.Printf("  page %d/%d, %d names", st.Page, st.TotalPages, st.TotalCount)
	if st.Query != "" {
		sourceColor.Printf(" matching %q", st.Query)
	}
	fmt.Println()
}

func printDocument(ws *workspace.Workspace) {
	st := ws.Document()
	if st.Document == nil {
		return
	}
	color.New(color.FgCyan, color.Bold).Println(st.Document.Name)
	fmt.Println(st.Document.Content)
}

func listConversations(ws *workspace.Workspace) {
	current := ws.Snapshot().CurrentConversationID
	for i, c := range ws.Conversations() {
		marker := " "
		if c.ID == current {
			marker = "*"
		}
		fmt.Printf("%s %d. %s (%d)\n", marker, i+1, c.Title, c.Summary.MessageCount)
	}
}

func selectConversation(ws *workspace.Workspace, arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("conversation number expected: %w", err)
	}
	convs := ws.Conversations()
	if n < 1 || n > len(convs) {
		return conversation.ErrNotFound
	}
	return ws.SelectConversation(convs[n-1].ID)
}
