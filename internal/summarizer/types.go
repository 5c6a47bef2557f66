package summarizer

// ChannelDigest 单个频道的处理结果
type ChannelDigest struct {
	Channel      string // 频道名，来自文件名
	MessageCount int    // 原始消息条数
	Text         string // 待投递的摘要文本（或无消息提示）
	NoActivity   bool   // true 表示频道无消息，未调用模型
}
