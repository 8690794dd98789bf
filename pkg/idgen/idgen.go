// Package idgen 基于 snowflake 生成全局唯一 ID
package idgen

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	mu   sync.Mutex
	node *snowflake.Node
)

// Init 使用指定节点号初始化生成器，多实例部署时每个实例节点号需不同
func Init(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return fmt.Errorf("failed to create snowflake node: %w", err)
	}
	mu.Lock()
	node = n
	mu.Unlock()
	return nil
}

func current() *snowflake.Node {
	mu.Lock()
	defer mu.Unlock()
	if node == nil {
		// 未显式初始化时使用节点 1
		node, _ = snowflake.NewNode(1)
	}
	return node
}

// Next 生成下一个数字 ID 的字符串形式
func Next() string {
	return current().Generate().String()
}

// NextWithPrefix 生成带业务前缀的 ID，例如 ORD-1790000000000000000
func NextWithPrefix(prefix string) string {
	return prefix + "-" + Next()
}
