//go:build darwin && cgo

package osutils

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation
#include <CoreGraphics/CoreGraphics.h>

static int nudgePointer() {
    CGEventRef probe = CGEventCreate(NULL);
    if (probe == NULL) {
        return -1;
    }
    CGPoint loc = CGEventGetLocation(probe);
    CFRelease(probe);

    CGEventRef there = CGEventCreateMouseEvent(NULL, kCGEventMouseMoved,
        CGPointMake(loc.x + 1, loc.y + 1), kCGMouseButtonLeft);
    CGEventRef back = CGEventCreateMouseEvent(NULL, kCGEventMouseMoved,
        loc, kCGMouseButtonLeft);
    if (there == NULL || back == NULL) {
        if (there) CFRelease(there);
        if (back) CFRelease(back);
        return -1;
    }
    CGEventPost(kCGHIDEventTap, there);
    CGEventPost(kCGHIDEventTap, back);
    CFRelease(there);
    CFRelease(back);
    return 0;
}
*/
import "C"

import (
	"github.com/rs/zerolog/log"

	"edgekvm/internal/input"
)

func wakeUp() error {
	log.Debug().Msg("Wake: nudging pointer")
	if C.nudgePointer() != 0 {
		return input.PlatformError("CGEventCreateMouseEvent", nil)
	}
	return nil
}
