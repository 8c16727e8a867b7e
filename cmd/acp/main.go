// Command acp is a client for agent hosts: it discovers the agents an
// endpoint advertises, dispatches sync or streaming runs against them, and
// can drive a debate across the discovered agents.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/zhound420/acp-agents-skill/core"
	"github.com/zhound420/acp-agents-skill/logging"
	"github.com/zhound420/acp-agents-skill/orchestrate"
	"github.com/zhound420/acp-agents-skill/registry"
	"github.com/zhound420/acp-agents-skill/router"
)

const usage = `Usage: acp -host <endpoint> <command> [arguments]

Commands:
  agents                     list agents advertised by the host
  discover <endpoint>        probe an endpoint and print what it advertises
  call <agent> <text>        run an agent and print its output
  debate <topic>             run a debate across agents on the host

Flags:
`

func main() {
	host := flag.String("host", "http://localhost:8700", "agent host endpoint")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger := logging.Logger(logging.NoOpLogger{})
	if *verbose {
		logger = logging.NewSlogLogger(logging.LogLevelDebug, "text", false)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := registry.New(func(o *registry.Options) { o.Logger = logger })
	rt := router.New(reg, func(o *router.Options) { o.Logger = logger })

	var err error
	switch cmd := flag.Arg(0); cmd {
	case "agents":
		err = runAgents(ctx, reg, *host)
	case "discover":
		if flag.NArg() < 2 {
			err = fmt.Errorf("discover requires an endpoint")
			break
		}
		err = runAgents(ctx, reg, flag.Arg(1))
	case "call":
		err = runCall(ctx, reg, rt, *host, flag.Args()[1:])
	case "debate":
		err = runDebate(ctx, reg, rt, *host, flag.Args()[1:])
	default:
		fmt.Fprintf(os.Stderr, "acp: unknown command %q\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "acp:", err)
		os.Exit(1)
	}
}

func discover(ctx context.Context, reg *registry.Registry, host string) error {
	_, err := reg.Discover(ctx, host)
	return err
}

func runAgents(ctx context.Context, reg *registry.Registry, host string) error {
	if err := discover(ctx, reg, host); err != nil {
		return err
	}
	for _, d := range reg.List() {
		fmt.Printf("%-12s %s", d.Name, strings.Join(d.Capabilities, ","))
		if d.Description != "" {
			fmt.Printf("  %s", d.Description)
		}
		fmt.Println()
	}
	return nil
}

func runCall(ctx context.Context, reg *registry.Registry, rt *router.Router, host string, args []string) error {
	fs := flag.NewFlagSet("call", flag.ExitOnError)
	stream := fs.Bool("stream", false, "stream output as it is produced")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("call requires an agent name and input text")
	}
	agent := fs.Arg(0)
	input := []core.Message{core.NewUserMessage(strings.Join(fs.Args()[1:], " "))}

	if err := discover(ctx, reg, host); err != nil {
		return err
	}

	if !*stream {
		run, err := rt.Call(ctx, agent, input)
		if err != nil {
			return err
		}
		fmt.Println(core.JoinText(run.Output))
		return nil
	}

	_, events, err := rt.Stream(ctx, agent, input)
	if err != nil {
		return err
	}
	for ev := range events {
		switch ev.Type {
		case core.EventGeneric:
			fmt.Fprintf(os.Stderr, "[thought] %s\n", ev.Payload.Thought)
		case core.EventMessagePart:
			fmt.Print(ev.Payload.Part.Content)
		case core.EventRunCompleted:
			fmt.Println()
		case core.EventRunFailed:
			if run := ev.Payload.Run; run != nil && run.Err != nil {
				return run.Err
			}
			return fmt.Errorf("run failed")
		}
	}
	return nil
}

func runDebate(ctx context.Context, reg *registry.Registry, rt *router.Router, host string, args []string) error {
	fs := flag.NewFlagSet("debate", flag.ExitOnError)
	topic := fs.String("topic", "", "debate topic")
	participants := fs.String("participants", "", "comma-separated participant agents")
	rounds := fs.Int("rounds", 2, "number of debate rounds")
	synthesizer := fs.String("synthesizer", "", "agent that produces the final verdict")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *topic == "" && fs.NArg() > 0 {
		*topic = strings.Join(fs.Args(), " ")
	}
	if *topic == "" || *participants == "" {
		return fmt.Errorf("debate requires a topic and -participants")
	}

	if err := discover(ctx, reg, host); err != nil {
		return err
	}

	engine := orchestrate.New(rt)
	result, err := engine.Debate(ctx, orchestrate.DebateConfig{
		Topic:        *topic,
		Participants: strings.Split(*participants, ","),
		Rounds:       *rounds,
		Synthesizer:  *synthesizer,
	})
	if result != nil && result.Session != nil {
		for _, turn := range result.Session.Transcript {
			fmt.Printf("\n=== Round %d: %s ===\n%s\n", turn.Round, turn.Agent, turn.Message.Text())
		}
	}
	if err != nil {
		return err
	}
	if len(result.Verdict) > 0 {
		fmt.Printf("\n=== Verdict ===\n%s\n", core.JoinText(result.Verdict))
	}
	return nil
}
