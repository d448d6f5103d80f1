package bootstrap

import (
	"context"
	"crypto/tls"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fulldump/box"

	"github.com/fulldump/kvlens/api"
	"github.com/fulldump/kvlens/configuration"
	"github.com/fulldump/kvlens/database"
	"github.com/fulldump/kvlens/mongostore"
	"github.com/fulldump/kvlens/service"
)

var VERSION = "dev"

// newBackend builds the document backend and its lifecycle: start blocks
// until stop is called.
func newBackend(c *configuration.Configuration) (b service.Backend, start, stop func() error) {

	if c.Backend == service.BackendMongo {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err := mongostore.Connect(ctx, c.MongoUri)
		if err != nil {
			log.Println("ERROR:", err.Error())
			os.Exit(-1)
		}

		exit := make(chan struct{})
		stopOnce := sync.Once{}
		start = func() error {
			<-exit
			return nil
		}
		stop = func() error {
			var err error
			stopOnce.Do(func() {
				defer close(exit)
				err = client.Disconnect(context.Background())
			})
			return err
		}
		return service.NewMongoBackend(client, c.MongoDatabase), start, stop
	}

	db := database.NewDatabase(&database.Config{
		Dir:     c.Dir,
		Storage: c.Storage,
	})
	stopOnce := sync.Once{}
	stop = func() error {
		var err error
		stopOnce.Do(func() {
			err = db.Stop()
		})
		return err
	}
	return service.NewEmbeddedBackend(db), db.Start, stop
}

func Bootstrap(c *configuration.Configuration) (start, stop func()) {

	backend, startBackend, stopBackend := newBackend(c)

	s := service.NewService(backend, c.StoresFile)

	b := api.Build(s, VERSION, c.ApiKey, c.ApiSecret)
	if c.EnableCompression {
		b.WithInterceptors(api.Compression)
	}
	b.WithInterceptors(
		api.AccessLog(log.New(os.Stdout, "ACCESS: ", log.Lshortfile)),
		api.InterceptorUnavailable(s),
		api.RecoverFromPanic,
		api.PrettyErrorInterceptor,
	)

	server := &http.Server{
		Addr:    c.HttpAddr,
		Handler: box.Box2Http(b),
	}

	if c.HttpsSelfsigned {
		log.Println("HTTPS Selfsigned")
		certificate, err := selfSignedCertificate()
		if err != nil {
			log.Println("ERROR:", err.Error())
			os.Exit(-1)
		}
		server.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{certificate},
		}
	}

	ln, err := net.Listen("tcp", c.HttpAddr)
	if err != nil {
		log.Println("ERROR:", err.Error())
		os.Exit(-1)
	}
	log.Println("listening on", c.HttpAddr)

	stop = func() {
		stopBackend()
		server.Shutdown(context.Background())
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		for {
			sig := <-signalChan
			log.Println("Signal received", sig.String())
			stop()
		}
	}()

	start = func() {

		wg := &sync.WaitGroup{}

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := startBackend()
			if err != nil {
				log.Println(err.Error())
			}
		}()

		// Store definitions need the embedded collections loaded first
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s.GetStatus() == database.StatusOpening {
				time.Sleep(10 * time.Millisecond)
			}
			if s.GetStatus() != database.StatusOperating {
				return
			}
			err := s.LoadStores(context.Background())
			if err != nil {
				log.Println("ERROR:", err.Error())
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			if c.HttpsEnabled || c.HttpsSelfsigned {
				err = server.ServeTLS(ln, "", "")
			} else {
				err = server.Serve(ln)
			}
			if err != nil && err != http.ErrServerClosed {
				log.Println(err.Error())
			}
		}()

		wg.Wait()
	}

	return
}
