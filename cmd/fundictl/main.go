// Command fundictl is a terminal front end for the FundiConnect API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bla-nqo/fundiconnect-builder/internal/client"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[1] {
	case "login":
		return runLoginCmd(ctx, args[2:], stdout, stderr)
	case "jobs":
		return runJobsCmd(ctx, args[2:], stdout, stderr)
	case "apply":
		return runApplyCmd(ctx, args[2:], stdout, stderr)
	case "chat":
		return runChatCmd(ctx, args[2:], os.Stdin, stdout, stderr)
	case "appeal":
		return runAppealCmd(ctx, args[2:], stdout, stderr)
	case "rate":
		return runRateCmd(ctx, args[2:], stdout, stderr)
	case "stats":
		return runStatsCmd(ctx, args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "fundictl <command> [flags]")
	fmt.Fprintln(w, "")
	printCommand(w, "login", "Sign in and print a token (--email, --password)")
	printCommand(w, "jobs", "List jobs (--list mine|opportunities|assigned, --watch)")
	printCommand(w, "apply", "Apply for an open job (<job-id>)")
	printCommand(w, "chat", "Live conversation with a user (<peer>, --job)")
	printCommand(w, "appeal", "Show restriction status or submit an appeal (--message)")
	printCommand(w, "rate", "Rate the fundi of a completed job (<job-id> --stars)")
	printCommand(w, "stats", "Platform counters (--watch)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Every command takes --url and --token, defaulting to FUNDICTL_URL and FUNDICTL_TOKEN.")
}

func printCommand(w io.Writer, name, desc string) {
	fmt.Fprintf(w, "  %-8s %s\n", name, desc)
}

// common holds the connection flags shared by every command.
type common struct {
	url     string
	token   string
	timeout time.Duration
}

func (c *common) register(fs *flag.FlagSet) {
	url := os.Getenv("FUNDICTL_URL")
	if url == "" {
		url = "http://localhost:8080"
	}
	fs.StringVar(&c.url, "url", url, "API base URL")
	fs.StringVar(&c.token, "token", os.Getenv("FUNDICTL_TOKEN"), "Session token")
	fs.DurationVar(&c.timeout, "timeout", 15*time.Second, "Request timeout")
}

func (c *common) options(stderr io.Writer) client.Options {
	return client.Options{
		BaseURL:  c.url,
		Timeout:  c.timeout,
		Notifier: client.WriterNotifier{W: stderr},
	}
}

func (c *common) session(ctx context.Context, stderr io.Writer) (*client.Session, bool) {
	if c.token == "" {
		_, _ = fmt.Fprintln(stderr, "Error: not signed in; run `fundictl login` and set FUNDICTL_TOKEN")
		return nil, false
	}
	sess, err := client.Resume(ctx, c.options(stderr), c.token)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, false
	}
	return sess, true
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}
