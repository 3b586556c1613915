package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"go.sablewire.io/engine/pkg/engine"
	"go.sablewire.io/engine/pkg/models"
)

// sessionSummary is the --dump output.
type sessionSummary struct {
	ID          string   `yaml:"id"`
	Role        string   `yaml:"role"`
	PeerVersion string   `yaml:"peerVersion,omitempty"`
	Protocol    string   `yaml:"protocol,omitempty"`
	ChainSHA1   []string `yaml:"chainSha1,omitempty"`
}

// run drives one client session over a TCP connection: the socket loop,
// the select-equivalent, and all blocking reads live here, outside the
// engine.
func run(ctx context.Context, logger *zap.Logger, host string, port int, dump bool) error {
	conf := engine.NewConf(logger)
	if err := conf.UseReasonableDefaults(); err != nil {
		return err
	}
	defer conf.Close()

	sess, err := engine.Client(conf)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.NameIndication(host); err != nil {
		return err
	}
	if err := sess.NextProtocolAdd("http/1.1"); err != nil {
		return err
	}

	conn, err := net.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("TCP connect(%s:%d) failed: %w", host, port, err)
	}
	defer conn.Close()

	// The session is single-threaded; the stdin and socket pumps share it.
	var mu sync.Mutex

	if err := sess.Subscribe(models.EventLogMsg, func(s *engine.Session, _ models.Event) error {
		fmt.Fprint(os.Stderr, s.LogMsgGet())
		return nil
	}); err != nil {
		return err
	}

	if err := sess.Subscribe(models.EventIOOutEnc, func(s *engine.Session, _ models.Event) error {
		buf := make([]byte, 8096)
		for {
			n, remaining, err := s.OutEncBytes(buf)
			if err != nil {
				return err
			}
			if n > 0 {
				if _, err := conn.Write(buf[:n]); err != nil {
					return fmt.Errorf("TCP write to %s:%d failed: %w", host, port, err)
				}
			}
			if remaining == 0 {
				return nil
			}
		}
	}); err != nil {
		return err
	}

	if err := sess.Subscribe(models.EventIOOutClear, func(s *engine.Session, _ models.Event) error {
		buf := make([]byte, 8096)
		for {
			n, remaining, err := s.OutClearBytes(buf)
			if err != nil {
				return err
			}
			if n > 0 {
				os.Stdout.Write(buf[:n])
			}
			if remaining == 0 {
				return nil
			}
		}
	}); err != nil {
		return err
	}

	mu.Lock()
	err = sess.Start()
	mu.Unlock()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer conn.Close()
		buf := make([]byte, 8096)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				mu.Lock()
				perr := sess.InEncBytes(buf[:n])
				mu.Unlock()
				if perr != nil {
					return perr
				}
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("TCP read from %s:%d failed: %w", host, port, err)
			}
		}
	})

	g.Go(func() error {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := append(scanner.Bytes(), '\n')
			mu.Lock()
			perr := sess.InClearBytes(line)
			mu.Unlock()
			if perr != nil {
				return perr
			}
		}
		// stdin closed; let the socket side finish draining
		return scanner.Err()
	})

	werr := g.Wait()

	if dump {
		printSummary(sess)
	}
	return werr
}

func printSummary(sess *engine.Session) {
	summary := sessionSummary{
		ID:       sess.ID(),
		Role:     sess.Role().String(),
		Protocol: sess.SelectedProtocol(),
	}
	if v, ok := sess.PeerVersion(); ok {
		summary.PeerVersion = v.String()
	}
	chain := sess.PeerChain()
	for i := 0; i < chain.Count(); i++ {
		summary.ChainSHA1 = append(summary.ChainSHA1, chain.Entry(i).FingerprintSHA1())
	}
	out, err := yaml.Marshal(summary)
	if err != nil {
		errColor.Fprintf(color.Error, "failed to render session summary: %v\n", err)
		return
	}
	os.Stderr.Write(out)
}
