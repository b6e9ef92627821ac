package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/advice-chat/internal/config"
	"github.com/zhouzirui/advice-chat/internal/logging"
	"github.com/zhouzirui/advice-chat/internal/service/advice"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] 无法加载 .env，改用系统环境变量: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}
	cfg.Log.Format = "console"
	logging.Setup(cfg.Log)

	endpoint := flag.String("endpoint", cfg.Advice.BaseURL, "建议服务地址")
	message := flag.String("message", "", "发送的问题")
	token := flag.String("token", cfg.Advice.Token, "Bearer token，可留空")
	count := flag.Int("n", 1, "并发请求数量，用于观察回复到达顺序")
	timeout := flag.Duration("timeout", cfg.Advice.Timeout, "单次请求超时时间")

	flag.Parse()

	if strings.TrimSpace(*message) == "" {
		flag.Usage()
		log.Fatal().Msg("请通过 -message 提供问题")
	}
	if *count < 1 {
		*count = 1
	}

	client := advice.NewClient(*endpoint, advice.WithTimeout(*timeout), advice.WithBearerToken(*token))

	result := sendAll(client, *message, *count)

	if *count > 1 {
		log.Info().Ints("completion_order", result.order).Msg("全部完成")
	}
	if result.failed > 0 {
		log.Error().Int("failed", result.failed).Int("total", *count).Msg("部分请求失败")
		os.Exit(1)
	}
}

type adviceGetter interface {
	GetAdvice(ctx context.Context, message string) (string, error)
}

type burstResult struct {
	order  []int
	failed int
}

// sendAll 并发发送 count 个请求，单个失败不会取消其他请求
func sendAll(client adviceGetter, message string, count int) burstResult {
	var (
		mu     sync.Mutex
		result = burstResult{order: make([]int, 0, count)}
	)

	start := time.Now()
	var g errgroup.Group
	for i := 0; i < count; i++ {
		g.Go(func() error {
			text := message
			if count > 1 {
				text = fmt.Sprintf("%s (#%d)", message, i+1)
			}

			reply, err := client.GetAdvice(context.Background(), text)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				result.failed++
				event := log.Error().Int("index", i+1).Err(err)
				var failure *advice.RequestFailure
				if errors.As(err, &failure) {
					event = event.Int("status", failure.StatusCode).Str("request_id", failure.RequestID)
				}
				event.Msg("请求失败")
				return nil
			}

			result.order = append(result.order, i+1)
			log.Info().Int("index", i+1).Dur("elapsed", time.Since(start)).Msg("收到回复")
			fmt.Printf("[%d] %s\n", i+1, reply)
			return nil
		})
	}
	_ = g.Wait()
	return result
}
