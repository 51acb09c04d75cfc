package layout

// SlotName 标识一个被跟踪加载状态的图片槽位。
type SlotName string

const (
	SlotProduct SlotName = "product"
	SlotLogo    SlotName = "logo"
)

// ImageSlot 是单个图片槽位的两态自动机 {pending → loaded}。
// 唯一的转移规则：来源（URL 或 data URL）变化时重置为 pending；
// 没有 loaded → pending 之外的回退，也没有错误态，加载失败则一直 pending。
type ImageSlot struct {
	Source string     `json:"source"`
	State  ImageState `json:"state"`
}

// Observe 记录当前来源。来源变化时重置为 pending 并返回 true。
func (s *ImageSlot) Observe(src string) bool {
	if s.State == "" {
		s.State = ImagePending
	}
	if s.Source == src {
		return false
	}
	s.Source = src
	s.State = ImagePending
	return true
}

// MarkLoaded 在 src 仍是当前来源时标记为已加载。
// 过期来源（槽位已切换到其他图片）的完成通知被忽略并返回 false。
func (s *ImageSlot) MarkLoaded(src string) bool {
	if src == "" || s.Source != src {
		return false
	}
	s.State = ImageLoaded
	return true
}

// Loaded 判断 src 是否为当前来源且已加载。
func (s ImageSlot) Loaded(src string) bool {
	return src != "" && s.Source == src && s.State == ImageLoaded
}

// ImageSlots 是传给合成阶段的只读加载状态视图。
type ImageSlots map[SlotName]ImageSlot

// StateOf 返回槽位对 src 的状态；未跟踪或来源不一致时为 pending。
func (m ImageSlots) StateOf(name SlotName, src string) ImageState {
	if slot, ok := m[name]; ok && slot.Loaded(src) {
		return ImageLoaded
	}
	return ImagePending
}

// Clone 复制视图，避免合成结果与会话共享可变状态。
func (m ImageSlots) Clone() ImageSlots {
	out := make(ImageSlots, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
