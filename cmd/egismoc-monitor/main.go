// egismoc-monitor is a small diagnostic and status tool for the sensor:
// it reports device presence, opens the device long enough to read the
// firmware version and enrolled-print count, and optionally serves that
// state over HTTP for other tooling to poll.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"egismoc/internal/egismoc"
)

type statusFramework struct {
	mu      sync.Mutex
	prints  []egismoc.Print
	listErr error
}

func (f *statusFramework) ReportFingerStatus(egismoc.FingerStatus)             {}
func (f *statusFramework) EnrollProgress(int, *egismoc.Print, error)          {}
func (f *statusFramework) EnrollComplete(*egismoc.Print, error)               {}
func (f *statusFramework) IdentifyReport(*egismoc.Print, *egismoc.Print, error) {}
func (f *statusFramework) IdentifyComplete(error)                            {}
func (f *statusFramework) VerifyReport(bool, *egismoc.Print, error)           {}
func (f *statusFramework) VerifyComplete(error)                              {}
func (f *statusFramework) DeleteComplete(error)                              {}
func (f *statusFramework) ClearStorageComplete(error)                        {}

func (f *statusFramework) ListComplete(prints []egismoc.Print, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prints, f.listErr = prints, err
}

func (f *statusFramework) snapshot() ([]egismoc.Print, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prints, f.listErr
}

func main() {
	serve := flag.Bool("serve", false, "serve /status and /enrolled over HTTP instead of printing once")
	addr := flag.String("addr", "127.0.0.1:8765", "address to listen on when -serve is set")
	pollInterval := flag.Duration("poll-interval", 5*time.Second, "how often to refresh enrolled-print state when -serve is set")
	flag.Parse()

	present, err := egismoc.ProbeDevice(context.Background())
	if err != nil {
		log.Fatalf("probe device: %v", err)
	}
	if !present {
		fmt.Println("sensor not present")
		return
	}
	fmt.Println("sensor present")

	transport, err := egismoc.OpenUSBTransport()
	if err != nil {
		log.Fatalf("open sensor: %v", err)
	}
	defer transport.Close()

	driver := egismoc.NewDriver(transport)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := driver.Open(ctx); err != nil {
		log.Fatalf("device open: %v", err)
	}
	fmt.Printf("firmware version: %s\n", driver.FirmwareVersion())

	fw := &statusFramework{}
	if err := driver.List(ctx, fw); err != nil {
		log.Printf("list: %v", err)
	}

	if !*serve {
		prints, _ := fw.snapshot()
		fmt.Printf("%d enrolled print(s)\n", len(prints))
		return
	}

	go func() {
		ticker := time.NewTicker(*pollInterval)
		defer ticker.Stop()
		for range ticker.C {
			pollCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := driver.List(pollCtx, fw); err != nil {
				log.Printf("poll list: %v", err)
			}
			cancel()
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"firmware_version": driver.FirmwareVersion(),
		})
	})
	router.GET("/enrolled", func(c *gin.Context) {
		prints, err := fw.snapshot()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		descriptions := make([]string, len(prints))
		for i, p := range prints {
			descriptions[i] = p.Description
		}
		c.JSON(http.StatusOK, gin.H{"count": len(prints), "prints": descriptions})
	})

	log.Printf("serving status on %s", *addr)
	if err := router.Run(*addr); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
