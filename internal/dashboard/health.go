package dashboard

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

const gib = 1024 * 1024 * 1024

// GetServerHealthHandler collects and returns host-level metrics. Probes that
// fail are reported as null rather than failing the request.
func GetServerHealthHandler(c echo.Context) error {
	res := map[string]interface{}{
		"status": "online",
		"uptime": time.Since(StartTime).Round(time.Second).String(),
	}

	if hInfo, err := host.InfoWithContext(c.Request().Context()); err == nil {
		res["runtime"] = map[string]interface{}{
			"start_time": StartTime.Format(time.RFC3339),
			"os":         hInfo.OS,
			"platform":   hInfo.Platform,
			"arch":       hInfo.KernelArch,
			"hostname":   hInfo.Hostname,
			"procs":      hInfo.Procs,
		}
	} else {
		res["runtime"] = nil
	}

	// Sampled over 200ms so the probe stays cheap.
	if pct, err := cpu.PercentWithContext(c.Request().Context(), 200*time.Millisecond, false); err == nil && len(pct) > 0 {
		res["cpu"] = map[string]interface{}{"usage_percent": fmt.Sprintf("%.2f%%", pct[0])}
	} else {
		res["cpu"] = nil
	}

	if v, err := mem.VirtualMemoryWithContext(c.Request().Context()); err == nil {
		res["memory"] = map[string]interface{}{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(v.Total)/gib),
			"used_gb":      fmt.Sprintf("%.2f GB", float64(v.Used)/gib),
			"used_percent": fmt.Sprintf("%.2f%%", v.UsedPercent),
		}
	} else {
		res["memory"] = nil
	}

	if d, err := disk.UsageWithContext(c.Request().Context(), "/"); err == nil {
		res["disk"] = map[string]interface{}{
			"total_gb":     fmt.Sprintf("%.2f GB", float64(d.Total)/gib),
			"used_percent": fmt.Sprintf("%.2f%%", d.UsedPercent),
		}
	} else {
		res["disk"] = nil
	}

	return c.JSON(http.StatusOK, res)
}
