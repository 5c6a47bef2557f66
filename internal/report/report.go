package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Message 单条频道消息，对应采集脚本导出的 JSON 记录
type Message struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// Folder 一次采集产生的报告目录
type Folder struct {
	Path    string
	ModTime time.Time
}

// ErrNoFolders 报告根目录下没有任何子目录
var ErrNoFolders = fmt.Errorf("未找到任何报告目录")

// LatestFolder 返回根目录下修改时间最新的子目录
// 修改时间相同时取目录名字典序较大者，保证结果确定
func LatestFolder(root string) (*Folder, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("读取报告根目录失败: %w", err)
	}

	var latest *Folder
	var latestName string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("读取目录信息失败 (%s): %w", entry.Name(), err)
		}

		candidate := &Folder{
			Path:    filepath.Join(root, entry.Name()),
			ModTime: info.ModTime(),
		}
		switch {
		case latest == nil:
			latest, latestName = candidate, entry.Name()
		case candidate.ModTime.After(latest.ModTime):
			latest, latestName = candidate, entry.Name()
		case candidate.ModTime.Equal(latest.ModTime) && entry.Name() > latestName:
			latest, latestName = candidate, entry.Name()
		}
	}

	if latest == nil {
		return nil, ErrNoFolders
	}
	return latest, nil
}

// ChannelFiles 列出报告目录下的全部频道 JSON 文件，按文件名排序
func (f *Folder) ChannelFiles() ([]string, error) {
	entries, err := os.ReadDir(f.Path)
	if err != nil {
		return nil, fmt.Errorf("读取报告目录失败: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			files = append(files, filepath.Join(f.Path, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// ChannelName 从频道文件路径提取频道名（去掉扩展名的文件名）
func ChannelName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadMessages 读取并解析单个频道的消息文件
func LoadMessages(path string) ([]Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取消息文件失败: %w", err)
	}

	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("解析消息文件失败 (%s): %w", filepath.Base(path), err)
	}
	return messages, nil
}
