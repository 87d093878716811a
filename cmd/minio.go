package cmd

import (
	"fmt"

	"Atlas/storage"

	"github.com/spf13/cobra"
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO封面存储测试",
	Long:  `连接MinIO服务器，确保封面存储桶存在。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)
		_, err := storage.NewMinioArtworkStore(cmd.Context(), storage.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			Region:    cfg.MinioRegion,
		})
		if err != nil {
			return fmt.Errorf("无法连接到MinIO: %w", err)
		}
		fmt.Println("MinIO连接成功，存储桶可用！")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
}
