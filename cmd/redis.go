package cmd

import (
	"fmt"

	"Atlas/cache"
	"Atlas/core/playlist"
	"Atlas/db"
	"Atlas/model"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试Redis连接是否成功，并用一个临时会话验证会话缓存的读写。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		rdb, err := db.ConnectRedis(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("无法连接到Redis: %w", err)
		}
		defer rdb.Close()
		fmt.Println("Redis连接成功！")

		sc := cache.NewSessionCache(rdb, 0)
		probe := playlist.Snapshot{ID: model.NewID(), Name: "probe", Ephemeral: true, Queue: []model.ID{model.NewID()}, Cursor: 0}
		if err := sc.Save(cmd.Context(), probe); err != nil {
			return fmt.Errorf("会话写入失败: %w", err)
		}
		got, err := sc.Load(cmd.Context(), probe.ID)
		if err != nil {
			return fmt.Errorf("会话读取失败: %w", err)
		}
		if len(got.Queue) != 1 || got.Queue[0] != probe.Queue[0] {
			return fmt.Errorf("会话内容不一致")
		}
		if err := sc.Delete(cmd.Context(), probe.ID); err != nil {
			return fmt.Errorf("会话删除失败: %w", err)
		}
		fmt.Println("会话缓存读写测试成功！")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
