package layout

import "testing"

func TestSlotResetsOnSourceChange(t *testing.T) {
	var s ImageSlot
	if !s.Observe("a.png") || s.State != ImagePending {
		t.Fatalf("首次观察应为 pending: %+v", s)
	}
	if !s.MarkLoaded("a.png") || !s.Loaded("a.png") {
		t.Fatalf("标记加载失败: %+v", s)
	}
	if s.Observe("a.png") {
		t.Fatalf("来源未变化不应重置")
	}
	if s.State != ImageLoaded {
		t.Fatalf("来源未变化时状态应保持 loaded")
	}
	if !s.Observe("b.png") || s.State != ImagePending {
		t.Fatalf("来源变化应重置为 pending: %+v", s)
	}
}

func TestSlotIgnoresStaleCompletion(t *testing.T) {
	var s ImageSlot
	s.Observe("a.png")
	s.Observe("b.png")
	if s.MarkLoaded("a.png") {
		t.Fatalf("过期来源的完成通知应被忽略")
	}
	if s.State != ImagePending {
		t.Fatalf("状态不应改变: %s", s.State)
	}
	if s.MarkLoaded("") {
		t.Fatalf("空来源不应标记为已加载")
	}
}

func TestSlotsStateOf(t *testing.T) {
	var s ImageSlot
	s.Observe("logo.png")
	s.MarkLoaded("logo.png")
	slots := ImageSlots{SlotLogo: s}

	if slots.StateOf(SlotLogo, "logo.png") != ImageLoaded {
		t.Fatalf("应为 loaded")
	}
	if slots.StateOf(SlotLogo, "other.png") != ImagePending {
		t.Fatalf("来源不一致时应为 pending")
	}
	if slots.StateOf(SlotProduct, "p.png") != ImagePending {
		t.Fatalf("未跟踪的槽位应为 pending")
	}

	clone := slots.Clone()
	next := clone[SlotLogo]
	next.Observe("new.png")
	clone[SlotLogo] = next
	if slots.StateOf(SlotLogo, "logo.png") != ImageLoaded {
		t.Fatalf("修改副本不应影响原视图")
	}
}
