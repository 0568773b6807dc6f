package main

import (
	"fmt"
	"net"
	"strings"
	"time"

	log "gopkg.in/src-d/go-log.v1"

	"github.com/gitproto/uploadpack"
	"github.com/gitproto/uploadpack/daemon"
	"github.com/gitproto/uploadpack/errkind"
	"github.com/gitproto/uploadpack/metrics"
	"github.com/gitproto/uploadpack/policy"
	"github.com/gitproto/uploadpack/protocol"
	"github.com/gitproto/uploadpack/request"
	"github.com/gitproto/uploadpack/store"

	"gopkg.in/src-d/go-billy.v4/osfs"
)

const (
	serveCmdName      = "serve"
	serveCmdShortDesc = "accept connections and answer upload-pack sessions"
	serveCmdLongDesc  = "Listens on a TCP address and runs one upload-pack session per connection, dispatching V0 or V2 by the dialect the client's request line names."
)

// serveCmd is the only subcommand this server ships: a single bounded
// listener over a single repository. Grounded on cli/borges/packer.go's
// Execute shape (open collaborators, build a pool, run it to completion),
// generalized from "drain a job queue once" to "serve connections until
// killed".
type serveCmd struct {
	Address string `long:"address" env:"UPLOAD_PACK_ADDRESS" default:":9418" description:"address to listen on"`
	RepoDir string `long:"repo" env:"UPLOAD_PACK_REPO" description:"path to a bare repository's .git directory; defaults to an empty in-memory repository"`
	Workers int    `long:"workers" env:"UPLOAD_PACK_WORKERS" default:"8" description:"maximum number of concurrent sessions"`

	Policy             string `long:"policy" env:"UPLOAD_PACK_POLICY" default:"reachable-commit" description:"one of: advertised, reachable-commit, tip, reachable-commit-tip, any"`
	AllowFilter        bool   `long:"allow-filter" env:"UPLOAD_PACK_ALLOW_FILTER" description:"honor partial-clone filter-spec arguments"`
	AllowRefInWant     bool   `long:"allow-ref-in-want" env:"UPLOAD_PACK_ALLOW_REF_IN_WANT" description:"accept want-ref arguments in V2 fetch commands"`
	AdvertiseRefInWant bool   `long:"advertise-ref-in-want" env:"UPLOAD_PACK_ADVERTISE_REF_IN_WANT" description:"list ref-in-want in the V2 capability advertisement"`

	metricsOpts
}

func (c *serveCmd) Execute(args []string) error {
	reqPolicy, err := parsePolicy(c.Policy)
	if err != nil {
		return err
	}

	db, refs, err := c.openRepository()
	if err != nil {
		return fmt.Errorf("unable to open repository: %s", err)
	}

	cfg := protocol.Config{
		Policy:             reqPolicy,
		AllowFilter:        c.AllowFilter,
		AllowRefInWant:     c.AllowRefInWant,
		AdvertiseRefInWant: c.AdvertiseRefInWant,
	}
	packWriter := store.NewRevlistPackWriter(db)

	logger := log.New(log.Fields{"address": c.Address})
	c.metricsOpts.maybeStartMetrics()

	handler := func(sessionLog log.Logger, conn net.Conn) error {
		defer conn.Close()
		return serveConnection(sessionLog, conn, db, refs, packWriter, cfg)
	}

	ln, err := net.Listen("tcp", c.Address)
	if err != nil {
		return fmt.Errorf("unable to listen on %s: %s", c.Address, err)
	}

	pool := daemon.NewSessionPool(handler)
	pool.SetWorkerCount(c.Workers)

	listener := daemon.NewListener(logger, ln, pool)
	logger.Infof("listening")
	return listener.Serve()
}

// serveConnection reads the transport preamble to decide the protocol
// dialect (§4.1 leaves dialect detection to the transport), then hands the
// rest of the connection to uploadpack.Upload.
func serveConnection(logger log.Logger, conn net.Conn, db store.ObjectDatabase, refs store.ReferenceStore, pw store.PackWriter, cfg protocol.Config) error {
	r := protocol.NewReader(conn)
	_, line, err := r.Next()
	if err != nil {
		return err
	}

	ver := requestedVersion(line)
	logger.With(log.Fields{"version": ver}).Debugf("session started")

	start := time.Now()
	sess := uploadpack.Session{
		DB:              db,
		Refs:            refs,
		PackWriter:      pw,
		ProtocolVersion: ver,
		Config:          cfg,
		Hooks: uploadpack.Hooks{
			OnFetch: func(req *request.Request) {
				metrics.AckIssued()
			},
		},
	}
	out := &countingWriter{w: conn}
	err = uploadpack.Upload(sess, conn, out, nil)
	elapsed := time.Since(start)
	metrics.SessionHandled(elapsed)

	done := logger.With(log.Fields{"version": ver, "duration": elapsed})
	if err != nil {
		metrics.ErrorRaised(classifyError(err))
		done.Errorf(err, "session ended")
		return err
	}
	metrics.PackWritten(out.n)
	done.With(log.Fields{"bytes": out.n}).Debugf("session ended")
	return nil
}

// countingWriter tracks bytes written to the session output, standing in
// for a true pack-byte counter since the driver writes the whole framed
// response (ACKs, shallow-info, the pack itself) to one stream.
type countingWriter struct {
	w net.Conn
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// classifyError maps err to the name of the errkind.Kind that raised it,
// for the per-kind error counter; an error none of the known kinds claim
// is counted as "other".
func classifyError(err error) string {
	switch {
	case errkind.Protocol.Is(err):
		return "protocol"
	case errkind.WantNotValid.Is(err):
		return "want-not-valid"
	case errkind.RefNotFound.Is(err):
		return "ref-not-found"
	case errkind.FilterNotAllowed.Is(err):
		return "filter-not-allowed"
	case errkind.ShallowRequestEmpty.Is(err):
		return "shallow-request-empty"
	case errkind.Resource.Is(err):
		return "resource"
	case errkind.ClientDisconnect.Is(err):
		return "client-disconnect"
	default:
		return "other"
	}
}

// requestedVersion extracts the `version=N` extra parameter from a
// `git-upload-pack /path\0host=...\0\0version=2\0` request line, the way
// the anonymous git:// protocol and SSH command lines carry it. An absent
// or unparseable parameter means V0.
func requestedVersion(line string) string {
	for _, part := range strings.Split(line, "\x00") {
		if strings.HasPrefix(part, "version=") {
			return strings.TrimPrefix(part, "version=")
		}
	}
	return "0"
}

func (c *serveCmd) openRepository() (store.ObjectDatabase, store.ReferenceStore, error) {
	if c.RepoDir == "" {
		m := store.NewMemoryStore()
		return m, m, nil
	}
	fs := osfs.New(c.RepoDir)
	s, err := store.NewFilesystemStore(fs)
	if err != nil {
		return nil, nil, err
	}
	return s, s, nil
}

func parsePolicy(name string) (policy.RequestPolicy, error) {
	switch name {
	case "advertised":
		return policy.Advertised, nil
	case "reachable-commit":
		return policy.ReachableCommit, nil
	case "tip":
		return policy.Tip, nil
	case "reachable-commit-tip":
		return policy.ReachableCommitTip, nil
	case "any":
		return policy.Any, nil
	default:
		return policy.Advertised, fmt.Errorf("unknown policy %q", name)
	}
}

func init() {
	_, err := app.AddCommand(serveCmdName, serveCmdShortDesc, serveCmdLongDesc, &serveCmd{})
	if err != nil {
		panic(err)
	}
}

// metricsOpts holds the flags to expose the expvar metrics endpoint.
// Grounded on cli/command.go's MetricsOpts/MaybeStartMetrics.
type metricsOpts struct {
	Metrics     bool `long:"metrics" env:"UPLOAD_PACK_METRICS" description:"expose a metrics endpoint using an HTTP server"`
	MetricsPort int  `long:"metrics-port" env:"UPLOAD_PACK_METRICS_PORT" default:"6062" description:"port to bind metrics to"`
}

func (c *metricsOpts) maybeStartMetrics() {
	if !c.Metrics {
		return
	}
	addr := fmt.Sprintf("0.0.0.0:%d", c.MetricsPort)
	go func() {
		logger := log.New(log.Fields{"address": addr})
		logger.Debugf("started metrics service")
		if err := metrics.Start(addr); err != nil {
			logger.With(log.Fields{"error": err}).Warningf("metrics service stopped")
		}
	}()
}
