// Command entryshell is an interactive shell over an entry store.
//
// Commands:
//
//	add <value>   append one entry
//	find [query]  list entries containing query (all entries if omitted)
//	\h            help
//	\q            quit
//
// The debug flag for the store worker is read from a settings store: a
// Pebble database when -settings is given, in-memory otherwise. -debug
// forces the flag on and persists it.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"golang.org/x/sync/errgroup"

	"github.com/davidvella/entrystore/settings"
	"github.com/davidvella/entrystore/settings/pebblestore"
	"github.com/davidvella/entrystore/store"
)

func main() {
	path := flag.String("path", "entries.db", "path to the entry store file")
	settingsDir := flag.String("settings", "", "directory for a persistent settings store")
	debug := flag.Bool("debug", false, "enable worker debug logging")
	seed := flag.String("seed", "", "file with one entry per line to add on startup")
	flag.Parse()

	st, err := openSettings(*settingsDir)
	if err != nil {
		log.Fatalf("open settings: %v", err)
	}
	defer st.Close()

	if *debug {
		if err := st.Set(settings.DebugKey, "true"); err != nil {
			log.Fatalf("persist debug flag: %v", err)
		}
	}

	openCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := store.Open(openCtx, *path, store.WithDebug(settings.Debug(st)))
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	if *seed != "" {
		if err := seedEntries(s, *seed); err != nil {
			log.Fatalf("seed entries: %v", err)
		}
	}

	if err := repl(s); err != nil {
		log.Fatalf("shell: %v", err)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Close(closeCtx); err != nil {
		log.Fatalf("close store: %v", err)
	}
}

func openSettings(dir string) (settings.Store, error) {
	if dir == "" {
		return settings.NewMemory(), nil
	}
	return pebblestore.Open(dir)
}

// seedEntries adds every non-empty line of the file as an entry, submitting
// them all before waiting so the worker drains the batch in one pass.
func seedEntries(s *store.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var g errgroup.Group
	ctx := context.Background()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c := s.AddEntry(line)
		g.Go(func() error {
			return c.Wait(ctx)
		})
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return g.Wait()
}

func repl(s *store.Store) error {
	rl, err := readline.New("entrystore> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	ctx := context.Background()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case `\q`, `\quit`:
			return nil
		case `\h`, `\help`:
			printHelp()
		case "add":
			if arg == "" {
				fmt.Println("usage: add <value>")
				continue
			}
			if err := s.AddEntry(arg).Wait(ctx); err != nil {
				fmt.Printf("add failed: %v\n", err)
			}
		case "find":
			results := s.Find(arg)
			n := 0
			for value := range results.All() {
				fmt.Println(value)
				n++
			}
			if err := results.Err(); err != nil {
				fmt.Printf("find failed: %v\n", err)
				continue
			}
			fmt.Printf("(%d entries)\n", n)
		default:
			fmt.Printf("unknown command %q, try \\h\n", cmd)
		}
	}
}

func printHelp() {
	fmt.Print(`Commands:
  add <value>   append one entry
  find [query]  list entries containing query (all entries if omitted)
  \h            this help
  \q            quit
`)
}
