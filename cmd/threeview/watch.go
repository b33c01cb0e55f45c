package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/aretw0/threeview/internal/presentation/graph"
	"github.com/aretw0/threeview/internal/presentation/tui"
	"github.com/aretw0/threeview/pkg/adapters/websocket"
	"github.com/aretw0/threeview/pkg/domain"
	"github.com/aretw0/threeview/pkg/mirror"
)

type watchOptions struct {
	Server  string
	PageID  string
	Mermaid bool
	Once    bool
	Quiet   time.Duration
	Click   string
	Pretty  bool
}

var watchCmd = &cobra.Command{
	Use:   "watch [page]",
	Short: "Follow a page from the terminal",
	Long: `Connects to a page like a browser would, rebuilds the scene from the
command stream and prints its hierarchy after every burst of updates.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := watchOptions{PageID: "home"}
		if len(args) > 0 {
			opts.PageID = args[0]
		}
		opts.Server, _ = cmd.Flags().GetString("server")
		opts.Mermaid, _ = cmd.Flags().GetBool("mermaid")
		opts.Once, _ = cmd.Flags().GetBool("once")
		opts.Quiet, _ = cmd.Flags().GetDuration("quiet")
		opts.Click, _ = cmd.Flags().GetString("click")
		opts.Pretty = tui.IsTerminal(os.Stdout)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := runWatch(ctx, opts, os.Stdout); err != nil && ctx.Err() == nil {
			fmt.Printf("Watch error: %v\n", err)
			os.Exit(1)
		}
	},
}

// pageURL turns a server address into the WebSocket endpoint of pageID.
func pageURL(server, pageID string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server address: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/pages/" + url.PathEscape(pageID) + "/ws"
	return u.String(), nil
}

func runWatch(ctx context.Context, opts watchOptions, out io.Writer) error {
	endpoint, err := pageURL(opts.Server, opts.PageID)
	if err != nil {
		return err
	}
	conn, _, err := gws.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	messages := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case messages <- string(data):
			case <-done:
				return
			}
		}
	}()

	m := mirror.New()
	render := tui.NewRenderer(opts.Pretty)
	termOut := termenv.NewOutput(out)
	clicked := false

	quiet := time.NewTimer(opts.Quiet)
	quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case text := <-messages:
			if err := m.Apply(text); err != nil {
				fmt.Fprintf(out, "skipping %q: %v\n", text, err)
				continue
			}
			quiet.Reset(opts.Quiet)
		case <-quiet.C:
			if opts.Pretty && !opts.Once {
				termOut.ClearScreen()
			}
			if err := show(out, opts, m.Objects(), render); err != nil {
				return err
			}

			if opts.Click != "" && !clicked {
				clicked = true
				if err := sendClick(conn, opts.Click); err != nil {
					return err
				}
				if opts.Once {
					// Wait for the effect of the click before the final render.
					continue
				}
			}
			if opts.Once {
				return nil
			}
		}
	}
}

func show(out io.Writer, opts watchOptions, objects []domain.ObjectSnapshot, render func(string) (string, error)) error {
	if opts.Mermaid {
		_, err := fmt.Fprint(out, graph.GenerateMermaid(objects, nil))
		return err
	}
	rendered, err := render(tui.SceneMarkdown(opts.PageID, objects))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}

func sendClick(conn *gws.Conn, objectID string) error {
	data, err := json.Marshal(websocket.Inbound{
		Type:    domain.EventClick,
		Payload: map[string]any{"object_id": objectID},
	})
	if err != nil {
		return err
	}
	return conn.WriteMessage(gws.TextMessage, data)
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringP("server", "s", "ws://localhost:8080", "Server address")
	watchCmd.Flags().Bool("mermaid", false, "Print a Mermaid flowchart instead of the tree")
	watchCmd.Flags().Bool("once", false, "Print the replayed scene and exit")
	watchCmd.Flags().Duration("quiet", 200*time.Millisecond, "Render after this long without updates")
	watchCmd.Flags().String("click", "", "Send one click on this object id after the replay")
}
