package job

import (
	"context"
	"fmt"
	"os"

	"github.com/robfig/cron/v3"

	"github.com/angelogustilo19/rag-debt-navigator/service"
)

// StartCronJob 每天凌晨 2 点检查统计文件，mtime 变了就重新入库
func StartCronJob(knowledgeSvc *service.KnowledgeService, statsFile string) *cron.Cron {
	c := cron.New()

	_, err := c.AddFunc("0 2 * * *", func() {
		if knowledgeSvc == nil {
			return
		}
		if _, statErr := os.Stat(statsFile); statErr != nil {
			fmt.Printf("[Cron] 统计文件不存在，跳过: %s\n", statsFile)
			return
		}
		if refreshErr := knowledgeSvc.RefreshIfChanged(context.Background(), statsFile); refreshErr != nil {
			fmt.Println("[Cron] Error:", refreshErr)
		}
	})
	if err != nil {
		fmt.Println("[Cron] 注册任务失败:", err)
		return c
	}

	c.Start()
	return c
}
