// billing-jobs выполняет разовые задачи: billing-jobs [flags] <notify-rentals|report|reconcile>.
package main

import (
	"os"

	"github.com/fsdevblog/study-billing/internal/app"
	"github.com/fsdevblog/study-billing/internal/config"
	"github.com/fsdevblog/study-billing/internal/logger"
)

func main() {
	conf := config.MustLoadConfig()
	l := logger.New(os.Stdout)

	if err := app.New(conf, l).RunJob(conf.Command); err != nil {
		l.WithError(err).Error("job failed")
		os.Exit(1)
	}
}
