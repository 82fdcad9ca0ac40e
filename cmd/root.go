package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/maxvaer/dirprobe/internal/config"
	"github.com/maxvaer/dirprobe/internal/logging"
	"github.com/maxvaer/dirprobe/internal/reqparse"
	"github.com/maxvaer/dirprobe/internal/runner"
	"github.com/maxvaer/dirprobe/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// errReported marks an error that was already written to the log.
var errReported = errors.New("reported")

// Environment variables consulted for flags that were not given.
const (
	envUsername  = "DIRPROBE_USERNAME"
	envPassword  = "DIRPROBE_PASSWORD"
	envUserAgent = "DIRPROBE_USER_AGENT"
	envProxy     = "DIRPROBE_PROXY"
)

type flagGroup struct {
	title string
	flags []string
}

var helpGroups = []flagGroup{
	{"TARGET", []string{"url", "request-file", "wordlist", "extensions", "default-extensions"}},
	{"CLASSIFICATION", []string{"ignore-code", "include-status", "exclude-size", "print-fails", "expand-url"}},
	{"RATE-LIMIT", []string{"threads", "timeout", "delay", "rate", "adaptive-throttle", "queue", "send-timeout"}},
	{"HTTP", []string{"gzip", "username", "password", "user-agent", "header", "proxy"}},
	{"OUTPUT", []string{"output", "format", "sort", "on-result", "log-file", "verbose", "silent", "no-color"}},
	{"CONFIGURATION", []string{"resume-file", "env-file"}},
}

// cli holds the parsed flags of one invocation.
type cli struct {
	opts      config.Options
	headers   []string
	timeoutMS int
	delayMS   int
	envFile   string
}

// NewRootCommand builds the dirprobe command.
func NewRootCommand() *cobra.Command {
	_, cmd := newCLI()
	return cmd
}

func newCLI() (*cli, *cobra.Command) {
	c := &cli{}
	cmd := &cobra.Command{
		Use:     "dirprobe [url] [flags]",
		Short:   "Concurrent web path brute-forcer",
		Version: version.Version,
		Long: `dirprobe streams a word list to a pool of workers that request every
word, optionally with extensions appended, beneath a target URL and report
what the server answers.`,
		Example: `  dirprobe https://example.com
  dirprobe -u https://example.com -x php,html -t 50
  cat words.txt | dirprobe https://example.com -w -
  dirprobe https://example.com --ignore-code 404,403 -f -E
  dirprobe https://example.com -o hits.json --format json --sort status
  dirprobe -r burp.req --default-extensions
  dirprobe https://example.com --resume-file scan.state
  dirprobe https://example.com --env-file .env --on-result "notify-send {url}"`,
		Args:          cobra.MaximumNArgs(1),
		PreRunE:       c.prepare,
		RunE:          c.run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	c.bindFlags(cmd.Flags())
	cmd.SetHelpFunc(printHelp)
	return c, cmd
}

func (c *cli) bindFlags(f *pflag.FlagSet) {
	o := &c.opts

	// Target
	f.StringVarP(&o.URL, "url", "u", "", "Target URL (or pass it as the argument)")
	f.StringVarP(&o.RequestFile, "request-file", "r", "", "Raw HTTP request file (e.g. Burp Suite export)")
	f.StringVarP(&o.WordlistPath, "wordlist", "w", "", "Word list path, - for stdin (default: built-in)")
	f.StringSliceVarP(&o.Extensions, "extensions", "x", nil, "Extensions appended to every word (e.g. php,html)")
	f.BoolVar(&o.DefaultExtensions, "default-extensions", false, "Also append the built-in extension list")

	// Classification
	f.Var(&intSliceValue{target: &o.IgnoreCodes}, "ignore-code", "Status codes never reported (comma-separated)")
	f.Var(&intSliceValue{target: &o.IncludeStatus}, "include-status", "Only report these status codes (comma-separated)")
	f.Var(&intSliceValue{target: &o.ExcludeSize}, "exclude-size", "Hide responses of these sizes (comma-separated)")
	f.BoolVarP(&o.PrintFails, "print-fails", "f", false, "Also report non-2xx responses")
	f.BoolVarP(&o.ExpandURL, "expand-url", "E", false, "Show full URLs instead of paths")

	// Performance
	f.IntVarP(&o.Threads, "threads", "t", 10, "Number of concurrent workers")
	f.IntVar(&c.timeoutMS, "timeout", 0, "Request timeout in milliseconds (0 = none)")
	f.IntVarP(&c.delayMS, "delay", "d", 0, "Delay between words in milliseconds")
	f.Float64Var(&o.Rate, "rate", 0, "Maximum requests per second across all workers")
	f.BoolVar(&o.AdaptiveThrottle, "adaptive-throttle", false, "Auto back-off on 429/503 and repeated errors")
	f.IntVar(&o.QueueSize, "queue", 1, "Words buffered between the reader and the workers")
	f.DurationVar(&o.SendTimeout, "send-timeout", config.DefaultSendTimeout, "Stop feeding when no worker takes a word for this long")

	// HTTP
	f.BoolVar(&o.Gzip, "gzip", false, "Request gzip-compressed responses")
	f.StringVarP(&o.Username, "username", "U", "", "Basic auth username")
	f.StringVarP(&o.Password, "password", "P", "", "Basic auth password")
	f.StringVar(&o.UserAgent, "user-agent", "", "Custom User-Agent string")
	f.StringArrayVarP(&c.headers, "header", "H", nil, "Custom header (Key: Value), repeatable")
	f.StringVar(&o.Proxy, "proxy", "", "HTTP/SOCKS proxy URL")

	// Output
	f.StringVarP(&o.OutputFile, "output", "o", "", "Write reported results to this file, - for stdout")
	f.StringVar(&o.OutputFormat, "format", "text", "Output format: text, json, csv")
	f.StringVar(&o.SortBy, "sort", "", "Sort results: status, path, size (buffers until the scan ends)")
	f.StringVar(&o.OnResultCmd, "on-result", "", "Shell command run for each result (receives JSON on stdin)")
	f.StringVar(&o.LogFile, "log-file", "", "Also write the log to this file")
	f.CountVarP(&o.Verbose, "verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.BoolVar(&o.Silent, "silent", false, "No console log output")
	f.BoolVar(&o.NoColor, "no-color", false, "Disable colored output")

	// Configuration
	f.StringVar(&o.ResumeFile, "resume-file", "", "File to save/load scan progress for resume")
	f.StringVar(&c.envFile, "env-file", "", "Read "+envUsername+" and friends from this .env file")
}

// prepare turns the parsed flags into validated options.
func (c *cli) prepare(cmd *cobra.Command, args []string) error {
	o := &c.opts
	flags := cmd.Flags()

	if len(args) == 1 {
		if flags.Changed("url") {
			return fmt.Errorf("target given both as argument and with --url")
		}
		o.URL = args[0]
	}

	headers, err := parseHeaders(c.headers)
	if err != nil {
		return err
	}
	o.Headers = headers

	if o.RequestFile != "" {
		if err := c.mergeRequestFile(flags); err != nil {
			return err
		}
	}
	if err := c.applyEnv(flags); err != nil {
		return err
	}

	o.Timeout = time.Duration(c.timeoutMS) * time.Millisecond
	o.Delay = time.Duration(c.delayMS) * time.Millisecond

	if o.URL == "" {
		_ = cmd.Help()
		fmt.Fprintln(os.Stderr)
	}
	o.Normalize()
	return o.Validate()
}

// mergeRequestFile seeds the target, headers and credentials from a
// captured request. Explicit flags take precedence.
func (c *cli) mergeRequestFile(flags *pflag.FlagSet) error {
	o := &c.opts
	req, err := reqparse.ParseFile(o.RequestFile)
	if err != nil {
		return fmt.Errorf("parsing request file: %w", err)
	}
	if o.URL == "" {
		o.URL = req.Target
	}
	if !flags.Changed("user-agent") && req.UserAgent != "" {
		o.UserAgent = req.UserAgent
	}
	if !flags.Changed("username") && req.Username != "" {
		o.Username, o.Password = req.Username, req.Password
	}
	if o.Headers == nil {
		o.Headers = make(map[string]string, len(req.Headers))
	}
	for key, val := range req.Headers {
		if _, exists := o.Headers[key]; !exists {
			o.Headers[key] = val
		}
	}
	fmt.Fprintf(os.Stderr, "[+] Loaded request from %s -> %s\n", o.RequestFile, o.URL)
	return nil
}

// applyEnv fills credentials, user agent and proxy from the environment,
// then from --env-file, for flags that were not set.
func (c *cli) applyEnv(flags *pflag.FlagSet) error {
	fileVars := map[string]string{}
	if c.envFile != "" {
		vars, err := godotenv.Read(c.envFile)
		if err != nil {
			return fmt.Errorf("reading env file: %w", err)
		}
		fileVars = vars
	}
	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return fileVars[key]
	}

	o := &c.opts
	fill := func(flag, key string, dst *string) {
		if flags.Changed(flag) || *dst != "" {
			return
		}
		*dst = lookup(key)
	}
	fill("username", envUsername, &o.Username)
	fill("password", envPassword, &o.Password)
	fill("user-agent", envUserAgent, &o.UserAgent)
	fill("proxy", envProxy, &o.Proxy)
	return nil
}

func (c *cli) run(cmd *cobra.Command, _ []string) error {
	o := &c.opts
	log, closeLog, err := logging.New(logging.Options{
		Verbose: o.Verbose,
		Silent:  o.Silent,
		LogFile: o.LogFile,
		NoColor: o.NoColor,
	})
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if _, err := runner.Run(ctx, o, log); err != nil {
		log.Errorf("%v", err)
		return errReported
	}
	return nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		key, val, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid header format %q, expected 'Key: Value'", h)
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	return headers, nil
}

// intSliceValue implements pflag.Value for comma-separated int slices.
type intSliceValue struct {
	target *[]int
}

func (v *intSliceValue) String() string {
	if v.target == nil || len(*v.target) == 0 {
		return ""
	}
	parts := make([]string, len(*v.target))
	for i, val := range *v.target {
		parts[i] = strconv.Itoa(val)
	}
	return strings.Join(parts, ",")
}

func (v *intSliceValue) Set(s string) error {
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", p, err)
		}
		*v.target = append(*v.target, n)
	}
	return nil
}

func (v *intSliceValue) Type() string { return "ints" }

func printHelp(cmd *cobra.Command, _ []string) {
	w := os.Stderr
	fmt.Fprintf(w, "\ndirprobe %s\n\n", displayVersion(cmd.Version))
	fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", cmd.Long, cmd.UseLine())
	fmt.Fprintf(w, "\nExamples:\n%s\n", cmd.Example)
	fmt.Fprintf(w, "\nFlags:\n")
	for _, g := range helpGroups {
		fmt.Fprintf(w, "\n%s:\n", g.title)
		for _, name := range g.flags {
			if f := cmd.Flags().Lookup(name); f != nil {
				fmt.Fprintln(w, formatFlag(f))
			}
		}
	}
	fmt.Fprintln(w)
}

func formatFlag(f *pflag.Flag) string {
	var left string
	if f.Shorthand != "" {
		left = fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	} else {
		left = fmt.Sprintf("    --%s", f.Name)
	}

	if typ := f.Value.Type(); typ != "bool" && typ != "count" {
		left += " " + typ
	}

	// Pad to a fixed column so descriptions line up.
	const col = 36
	if len(left) < col {
		left += strings.Repeat(" ", col-len(left))
	}

	right := f.Usage
	switch def := f.DefValue; def {
	case "", "false", "0", "0s", "[]":
	default:
		right += fmt.Sprintf(" (default %s)", def)
	}
	return "   " + left + right
}

func displayVersion(ver string) string {
	if ver != "dev" && ver != "" && !strings.HasPrefix(ver, "v") {
		return "v" + ver
	}
	return ver
}
