// egismoc-tool is a command-line harness for exercising the driver core
// against a real sensor: enroll, identify, list and clear-storage, each
// wired through internal/egismoc.Driver the way a fingerprint framework's
// glue code would drive it. The verify and delete commands are recognized
// but exit with an error, since the harness has no stored print to pass.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"egismoc/internal/config"
	"egismoc/internal/egismoc"
)

// cliFramework implements egismoc.Framework by printing to stdout and, for
// Enroll, driving an mpb progress bar.
type cliFramework struct {
	bar *mpb.Bar
}

func (f *cliFramework) ReportFingerStatus(status egismoc.FingerStatus) {
	if status == egismoc.FingerStatusNeeded {
		fmt.Println("place your finger on the sensor...")
	} else {
		fmt.Println("finger detected, processing...")
	}
}

func (f *cliFramework) EnrollProgress(stage int, print *egismoc.Print, err error) {
	if f.bar != nil {
		f.bar.SetCurrent(int64(stage))
	}
	if err != nil {
		if kind, ok := egismoc.AsKind(err); ok && kind.IsRetry() {
			fmt.Printf("stage %d: %v (try again)\n", stage, err)
			return
		}
	}
	fmt.Printf("stage %d/%d captured\n", stage, egismoc.EnrollTimes)
}

func (f *cliFramework) EnrollComplete(print *egismoc.Print, err error) {
	if err != nil {
		fmt.Printf("enroll failed: %v\n", err)
		return
	}
	fmt.Printf("enrolled: %s\n", print.Description)
}

func (f *cliFramework) IdentifyReport(matched *egismoc.Print, print *egismoc.Print, err error) {
	switch {
	case err != nil:
		fmt.Printf("identify error: %v\n", err)
	case matched != nil:
		fmt.Printf("identify match: %s\n", matched.Description)
	default:
		fmt.Println("identify: no match")
	}
}
func (f *cliFramework) IdentifyComplete(err error) {
	if err != nil {
		fmt.Printf("identify failed: %v\n", err)
	}
}

func (f *cliFramework) VerifyReport(matchSuccess bool, print *egismoc.Print, err error) {
	switch {
	case err != nil:
		fmt.Printf("verify error: %v\n", err)
	case matchSuccess:
		fmt.Println("verify: match")
	default:
		fmt.Println("verify: no match")
	}
}
func (f *cliFramework) VerifyComplete(err error) {
	if err != nil {
		fmt.Printf("verify failed: %v\n", err)
	}
}

func (f *cliFramework) ListComplete(prints []egismoc.Print, err error) {
	if err != nil {
		fmt.Printf("list failed: %v\n", err)
		return
	}
	fmt.Printf("%d enrolled print(s):\n", len(prints))
	for _, p := range prints {
		fmt.Printf("  - %s\n", p.Description)
	}
}

func (f *cliFramework) DeleteComplete(err error) {
	if err != nil {
		fmt.Printf("delete failed: %v\n", err)
		return
	}
	fmt.Println("deleted")
}

func (f *cliFramework) ClearStorageComplete(err error) {
	if err != nil {
		fmt.Printf("clear-storage failed: %v\n", err)
		return
	}
	fmt.Println("storage cleared")
}

func main() {
	cmd := flag.String("cmd", "list", "operation to run: enroll, identify, verify, list, delete, clear-storage")
	timeout := flag.Duration("timeout", 60*time.Second, "overall operation timeout")
	flag.Parse()

	if enrollTimes := config.EnrollTimesOverride(); enrollTimes > 0 {
		egismoc.EnrollTimes = enrollTimes
	}

	transport, err := egismoc.OpenUSBTransport()
	if err != nil {
		log.Fatalf("open sensor: %v", err)
	}
	defer transport.Close()

	driver := egismoc.NewDriver(transport)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := driver.Open(ctx); err != nil {
		log.Fatalf("device open: %v", err)
	}
	fmt.Printf("firmware version: %s\n", driver.FirmwareVersion())

	fw := &cliFramework{}

	switch *cmd {
	case "enroll":
		progress := mpb.New(mpb.WithOutput(os.Stdout))
		fw.bar = progress.AddBar(int64(egismoc.EnrollTimes),
			mpb.PrependDecorators(decor.Name("enroll")),
			mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
		)
		gen := func(p egismoc.Print) string { return fmt.Sprintf("FP%d", time.Now().UnixNano()) }
		if err := driver.Enroll(ctx, egismoc.Print{}, gen, fw); err != nil {
			log.Fatalf("enroll: %v", err)
		}
		progress.Wait()
	case "identify":
		var gallery []egismoc.Print
		if err := driver.Identify(ctx, gallery, fw); err != nil {
			log.Fatalf("identify: %v", err)
		}
	case "verify":
		log.Fatal("verify requires a stored reference print; not supported by this harness")
	case "list":
		if err := driver.List(ctx, fw); err != nil {
			log.Fatalf("list: %v", err)
		}
	case "delete":
		log.Fatal("delete requires a print selection; not supported by this harness")
	case "clear-storage":
		if err := driver.ClearStorage(ctx, fw); err != nil {
			log.Fatalf("clear-storage: %v", err)
		}
	default:
		log.Fatalf("unknown -cmd %q", *cmd)
	}
}
