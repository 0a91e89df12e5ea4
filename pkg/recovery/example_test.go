package recovery_test

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"github.com/jeremyhahn/go-recovery/pkg/recovery"
)

func ExampleManager() {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	mgr, err := recovery.NewManager(recovery.Config{
		Mode:   recovery.ModeFunc(func() bool { return true }),
		Clock:  recovery.ClockFunc(func() time.Time { return now }),
		Random: bytes.NewReader([]byte{0x4f, 0x2a, 0x9c}),
	})
	if err != nil {
		log.Fatal(err)
	}

	key, err := mgr.Generate()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(key)
	fmt.Println(mgr.ValidateKey(key))

	mgr.MarkAsUsed()
	fmt.Println(mgr.ValidateKey(key))
	fmt.Println(mgr.State())

	// Output:
	// RK-4F2A9C
	// true
	// false
	// consumed
}

func ExampleRenderPanel() {
	for _, line := range recovery.RenderPanel("RK-4F2A9C", 15*time.Minute) {
		fmt.Println(line)
	}

	// Output:
	// ╔════════════════════════════════════════╗
	// ║   RECOVERY MODE ACTIVE                 ║
	// ║                                        ║
	// ║   Recovery Key: RK-4F2A9C              ║
	// ║   Expires: 15 minutes                  ║
	// ║                                        ║
	// ║   Login with any username and this     ║
	// ║   key as password to reset access      ║
	// ╚════════════════════════════════════════╝
}
