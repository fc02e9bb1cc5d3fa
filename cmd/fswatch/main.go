// Command fswatch listens on filesystem changes and forwards received events
// to user-defined handlers.
//
// Usage
//
//    usage: fswatch [-c command] [-f script file] [-poll] [path]...
//
// The -c flag registers a command handler, which uses the syntax of package
// template. fswatch passes the event to the template and runs the produced
// string through the system shell (/bin/sh -c, or cmd /c on Windows).
// Additionally the path and action values are accessible to the process via
// FSWATCH_PATH and FSWATCH_ACTION environment variables.
//
// The struct being passed to the template is:
//
//   type Event struct {
//       Path   string
//       Action string
//   }
//
// Values for the Action field are:
//
//   - add
//   - addDir
//   - change
//   - unlink
//   - unlinkDir
//
// The -f flag registers a file handler, which works similarly to the -c
// handler. The only difference is the template is read from the given file
// instead of the command line.
//
// The path arguments tell fswatch which files, directories, or glob
// patterns to watch. By default fswatch watches the current working
// directory.
//
// If no handler is specified, fswatch prints each event to os.Stdout.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"text/template"

	"fswatch"
)

const usage = `usage: fswatch [-c command] [-f script file] [-poll] [path]...

Listens on filesystem changes and forwards received events to
user-defined handlers.

The -c flag registers a command handler, which uses the syntax
of package template. fswatch passes the event to the template
and runs the produced string through the system shell (/bin/sh -c,
or cmd /c on Windows). Additionally the path and action values are
accessible to the process via FSWATCH_PATH and FSWATCH_ACTION
environment variables.

The -poll flag forces the stat-polling primitive instead of the
platform's native watch API.

If no handler is specified, fswatch prints each event to os.Stdout.`

var (
	file          string
	command       string
	usePoll       bool
	ignoreInitial bool
	paths         = []string{"."}
)

func newBaseEnv() []string {
	env := os.Environ()
	filtered := env[:0]
	for _, s := range env {
		ls := strings.ToLower(s)
		if strings.HasPrefix(ls, "fswatch_path=") || strings.HasPrefix(ls, "fswatch_action=") {
			continue
		}
		filtered = append(filtered, s)
	}
	return append(filtered, "", "")
}

// Event is the value text/template renders for a -c/-f handler.
type Event struct {
	Path   string
	Action string
}

func newEventFromInfo(ei fswatch.EventInfo) Event {
	return Event{Path: ei.Path(), Action: ei.Action().String()}
}

// Handler runs a parsed command template against each received Event.
type Handler struct {
	tmpl *template.Template
	env  []string
}

func newHandler(text string) (*Handler, error) {
	tmpl, err := template.New("main.Handler").Parse(text)
	if err != nil {
		return nil, err
	}
	return &Handler{tmpl: tmpl, env: newBaseEnv()}, nil
}

func (h *Handler) run(e Event) error {
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, e); err != nil {
		return err
	}
	s := buf.String()
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", s)
	default:
		cmd = exec.Command("/bin/sh", "-c", s)
	}
	h.env[len(h.env)-2] = "FSWATCH_PATH=" + e.Path
	h.env[len(h.env)-1] = "FSWATCH_ACTION=" + e.Action
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = h.env
	return cmd.Run()
}

// daemon starts a goroutine draining events into h.run, returning the
// channel callers feed.
func (h *Handler) daemon() chan<- Event {
	c := make(chan Event)
	go func() {
		for e := range c {
			if err := h.run(e); err != nil {
				log.Println("handler error:", err)
			}
		}
	}()
	return c
}

func die(v interface{}) {
	fmt.Fprintln(os.Stderr, v)
	os.Exit(1)
}

func init() {
	flag.CommandLine.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
	}
	flag.StringVar(&file, "f", "", "script file to execute on received event")
	flag.StringVar(&command, "c", "", "command to run on received event")
	flag.BoolVar(&usePoll, "poll", false, "use the stat-polling primitive instead of native watch APIs")
	flag.BoolVar(&ignoreInitial, "ignore-initial", false, "suppress the synthetic add/addDir events produced by the initial scan")
	flag.Parse()
	if flag.NArg() != 0 {
		paths = flag.Args()
	}
}

func main() {
	var handlers []*Handler
	if command != "" {
		h, err := newHandler(command)
		if err != nil {
			die(err)
		}
		handlers = append(handlers, h)
	}
	if file != "" {
		p, err := os.ReadFile(file)
		if err != nil {
			die(err)
		}
		h, err := newHandler(string(p))
		if err != nil {
			die(err)
		}
		handlers = append(handlers, h)
	}

	var run []chan<- Event
	for _, h := range handlers {
		run = append(run, h.daemon())
	}

	cfg := fswatch.Config{
		Options: fswatch.DefaultOptions(),
	}
	cfg.UsePolling = usePoll
	cfg.IgnoreInitial = ignoreInitial

	w := fswatch.New(cfg)
	defer w.Close()

	for _, path := range paths {
		if err := w.Add(path); err != nil {
			die(err)
		}
	}

	go func() {
		for err := range w.Errors() {
			log.Println("error:", err)
		}
	}()
	go func() {
		for range w.Ready() {
		}
	}()

	for ei := range w.Events() {
		fmt.Println("received", ei)
		e := newEventFromInfo(ei)
		for _, c := range run {
			select {
			case c <- e:
			default:
				log.Println("event dropped due to slow handler")
			}
		}
	}
}
