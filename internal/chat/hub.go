package chat

import "maps"

// hub keeps broadcast groups: room code -> bound peers. A peer is bound to at
// most one room. Owned by the engine loop, no locking.
type hub struct {
	groups map[string]map[Peer]struct{}
	bound  map[Peer]string
}

func newHub() *hub {
	return &hub{
		groups: make(map[string]map[Peer]struct{}),
		bound:  make(map[Peer]string),
	}
}

// bind moves p into code's group and returns the previous room, if any.
func (h *hub) bind(p Peer, code string) string {
	prev := h.unbind(p)

	g, ok := h.groups[code]
	if !ok {
		g = make(map[Peer]struct{})
		h.groups[code] = g
	}
	g[p] = struct{}{}
	h.bound[p] = code

	return prev
}

func (h *hub) unbind(p Peer) string {
	code, ok := h.bound[p]
	if !ok {
		return ""
	}
	delete(h.bound, p)
	if g, ok := h.groups[code]; ok {
		delete(g, p)
		if len(g) == 0 {
			delete(h.groups, code)
		}
	}
	return code
}

// members returns a copy so callers may rebind while iterating.
func (h *hub) members(code string) map[Peer]struct{} {
	return maps.Clone(h.groups[code])
}

// drop removes the whole group and returns its former members.
func (h *hub) drop(code string) map[Peer]struct{} {
	g := h.groups[code]
	delete(h.groups, code)
	for p := range g {
		delete(h.bound, p)
	}
	return g
}

func (h *hub) room(p Peer) string {
	return h.bound[p]
}
