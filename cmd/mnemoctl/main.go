// mnemoctl is the operator CLI: it enqueues videos for ingest and inspects
// pipeline state through the same database the workers use.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/COMMENTERTHE9/Mnemo/internal/config"
	"github.com/COMMENTERTHE9/Mnemo/internal/report"
	"github.com/COMMENTERTHE9/Mnemo/internal/store"
	"github.com/COMMENTERTHE9/Mnemo/internal/videoid"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return errors.New("a command is required")
	}

	switch args[0] {
	case "enqueue":
		return runEnqueue(args[1:])
	case "status":
		return runStatus(args[1:])
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: mnemoctl <command> [flags]

commands:
  enqueue   queue a video URL for ingest
  status    show queue and per-video report state`)
}

func openStore(ctx context.Context) (*store.Store, error) {
	conf, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, conf.DBPath)
}

func runEnqueue(args []string) error {
	fs := flag.NewFlagSet("enqueue", flag.ContinueOnError)
	url := fs.String("url", "", "source URL to download")
	videoID := fs.String("id", "", "video id (generated when empty)")
	priority := fs.Int("priority", 0, "queue priority, higher first")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*url) == "" {
		fs.Usage()
		return errors.New("--url is required")
	}

	id := strings.TrimSpace(*videoID)
	if id == "" {
		// Same URL, same id: re-enqueueing dedupes on the store's unique key.
		if derived, err := videoid.Derive(*url); err == nil {
			id = derived
		} else {
			id = "video_" + uuid.NewString()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	taskID, err := st.EnqueueVideo(ctx, id, *url, *priority)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("video %s is already queued", id)
		}
		return err
	}

	fmt.Printf("video_id: %s\n", id)
	fmt.Printf("task_id: %d\n", taskID)
	return nil
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	videoID := fs.String("video", "", "show one video's detail instead of the queue")
	limit := fs.Int("limit", 20, "max queue rows to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if strings.TrimSpace(*videoID) != "" {
		return printVideoStatus(ctx, st, strings.TrimSpace(*videoID))
	}
	return printQueue(ctx, st, *limit)
}

func printQueue(ctx context.Context, st *store.Store, limit int) error {
	tasks, err := st.ListTasks(ctx, limit)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("queue is empty")
		return nil
	}

	for _, t := range tasks {
		age := humanize.Time(t.CreatedAt)
		fmt.Printf("%-6d %-12s %-10s %-4d %s (%s)\n",
			t.ID, t.Status, t.TaskType, t.Priority, t.VideoID, age)
	}
	return nil
}

func printVideoStatus(ctx context.Context, st *store.Store, videoID string) error {
	v, err := st.GetVideo(ctx, videoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("unknown video: %s", videoID)
		}
		return err
	}

	fmt.Printf("video_id: %s\n", v.VideoID)
	fmt.Printf("source: %s\n", v.Filename)
	fmt.Printf("status: %s\n", v.Status)
	if v.DurationSeconds > 0 {
		fmt.Printf("duration: %.1fs\n", v.DurationSeconds)
		fmt.Printf("video: %dx%d @ %.2f fps\n", v.Width, v.Height, v.FPS)
	}
	if v.ProcessedAt != nil {
		fmt.Printf("processed: %s\n", humanize.Time(*v.ProcessedAt))
	}

	counts, err := st.CountGapperReports(ctx, videoID)
	if err != nil {
		return err
	}
	for _, typ := range []report.GapperType{
		report.GapperFrame, report.GapperAudio,
		report.GapperMotion, report.GapperMotionSegment,
	} {
		if n := counts[typ]; n > 0 {
			fmt.Printf("reports[%s]: %d\n", typ, n)
		}
	}

	if node, err := st.GetMemoryNode(ctx, videoID, videoID+"_root"); err == nil {
		fmt.Printf("summary: %s\n", node.Summary)
	}
	return nil
}
