// Package main is todoctl, a command-line client for the to-do service.
//
//	todoctl [--profile P] [--config-dir D] [--base-url URL] [--workers N] <command> [args]
//
// Commands:
//
//	list     [--completed=true|false]
//	create   --title T [--description D] [--completed]
//	get      ID
//	replace  ID --title T [--description D] [--completed]
//	update   ID [--title T] [--description D] [--completed=BOOL]
//	delete   ID...
//	complete ID...
//
// Results are printed to stdout as indented JSON. Failures go to stderr and
// the exit status is 1 when any operation failed.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/clients/todoapi"
	"github.com/jsamuelsen11/todo-resource-service/internal/adapters/http/dto"
	"github.com/jsamuelsen11/todo-resource-service/internal/app/fanout"
	"github.com/jsamuelsen11/todo-resource-service/internal/domain/todo"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/config"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/httpclient"
	"github.com/jsamuelsen11/todo-resource-service/internal/platform/logging"
	"github.com/jsamuelsen11/todo-resource-service/internal/ports"
)

const defaultWorkers = 4

var errUsage = errors.New("usage: todoctl [flags] list|create|get|replace|update|delete|complete [args]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// cli carries what every command needs.
type cli struct {
	svc     ports.TodoService
	workers int
	out     io.Writer
	errOut  io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("todoctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	profile := fs.String("profile", "", "config profile (falls back to $APP_PROFILE, then local)")
	configDir := fs.String("config-dir", "configs", "directory holding base.yaml and <profile>.yaml")
	baseURL := fs.String("base-url", "", "service root URL, overrides client.base_url")
	workers := fs.Int("workers", defaultWorkers, "concurrent calls for multi-id commands")
	verbose := fs.BoolP("verbose", "v", false, "log client activity to stderr")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	cfg, err := config.Load(config.ResolveProfile(*profile), config.WithConfigDir(*configDir))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *baseURL != "" {
		cfg.Client.BaseURL = *baseURL
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := logging.New(level, "text", stderr)

	client := httpclient.New(&cfg.Client, "todo-service", nil, logger)
	c := &cli{
		svc:     todoapi.New(client, logger),
		workers: *workers,
		out:     stdout,
		errOut:  stderr,
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "list":
		return c.list(ctx, rest)
	case "create":
		return c.create(ctx, rest)
	case "get":
		return c.get(ctx, rest)
	case "replace":
		return c.replace(ctx, rest)
	case "update":
		return c.update(ctx, rest)
	case "delete":
		return c.delete(ctx, rest)
	case "complete":
		return c.complete(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func (c *cli) list(ctx context.Context, args []string) error {
	fs := c.flags("list")
	completed := fs.String("completed", "", "only items with this completion state (true|false)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var filter todo.Filter
	if fs.Changed("completed") {
		v, err := strconv.ParseBool(*completed)
		if err != nil {
			return fmt.Errorf("--completed must be true or false, got %q", *completed)
		}
		filter.Completed = &v
	}

	items, err := c.svc.List(ctx, filter)
	if err != nil {
		return err
	}
	return c.print(dto.ToTodoListResponse(items))
}

func (c *cli) create(ctx context.Context, args []string) error {
	fs := c.flags("create")
	title := fs.String("title", "", "item title (required)")
	description := fs.String("description", "", "item description")
	completed := fs.Bool("completed", false, "create the item already completed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	item, err := c.svc.Create(ctx, &todo.Item{Title: *title, Description: *description, Completed: *completed})
	if err != nil {
		return err
	}
	return c.print(dto.ToTodoResponse(item))
}

func (c *cli) get(ctx context.Context, args []string) error {
	id, err := singleID("get", args)
	if err != nil {
		return err
	}

	item, err := c.svc.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.print(dto.ToTodoResponse(item))
}

func (c *cli) replace(ctx context.Context, args []string) error {
	fs := c.flags("replace")
	title := fs.String("title", "", "new title (required)")
	description := fs.String("description", "", "new description")
	completed := fs.Bool("completed", false, "new completion state")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := singleID("replace", fs.Args())
	if err != nil {
		return err
	}

	item, err := c.svc.Replace(ctx, id, &todo.Item{Title: *title, Description: *description, Completed: *completed})
	if err != nil {
		return err
	}
	return c.print(dto.ToTodoResponse(item))
}

func (c *cli) update(ctx context.Context, args []string) error {
	fs := c.flags("update")
	title := fs.String("title", "", "new title")
	description := fs.String("description", "", "new description")
	completed := fs.Bool("completed", false, "new completion state")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := singleID("update", fs.Args())
	if err != nil {
		return err
	}

	// Only flags given on the command line become part of the patch.
	var patch todo.Patch
	if fs.Changed("title") {
		patch.Title = title
	}
	if fs.Changed("description") {
		patch.Description = description
	}
	if fs.Changed("completed") {
		patch.Completed = completed
	}

	item, err := c.svc.Update(ctx, id, patch)
	if err != nil {
		return err
	}
	return c.print(dto.ToTodoResponse(item))
}

func (c *cli) delete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("delete: at least one ID is required")
	}

	results := fanout.Run(ctx, c.workers, args, func(ctx context.Context, id string) (string, error) {
		if err := c.svc.Delete(ctx, id); err != nil {
			return "", fmt.Errorf("delete %s: %w", id, err)
		}
		return id, nil
	})
	if err := c.print(fanout.Values(results)); err != nil {
		return err
	}
	return fanout.Join(results)
}

func (c *cli) complete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("complete: at least one ID is required")
	}

	results := fanout.Run(ctx, c.workers, args, func(ctx context.Context, id string) (dto.TodoResponse, error) {
		item, err := c.svc.MarkComplete(ctx, id)
		if err != nil {
			return dto.TodoResponse{}, fmt.Errorf("complete %s: %w", id, err)
		}
		return dto.ToTodoResponse(item), nil
	})
	if err := c.print(fanout.Values(results)); err != nil {
		return err
	}
	return fanout.Join(results)
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func singleID(cmd string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s: exactly one ID is required, got %d", cmd, len(args))
	}
	return args[0], nil
}
