package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ha1tch/qaflow/pkg/canvas"
	"github.com/ha1tch/qaflow/pkg/flow"
	"github.com/ha1tch/qaflow/pkg/render"
	"github.com/ha1tch/qaflow/pkg/session"
)

type textRequest struct {
	Text string `json:"text" validate:"max=4096"`
}

type optionRequest struct {
	Text   *string      `json:"text" validate:"omitempty,max=4096"`
	Target *flow.NodeID `json:"targetNodeId" validate:"omitempty,min=1"`
}

type pointRequest struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

func (p pointRequest) point() canvas.Point {
	return canvas.Point{X: *p.X, Y: *p.Y}
}

type beginDragRequest struct {
	Node flow.NodeID `json:"node" validate:"required"`
	pointRequest
}

type runRequest struct {
	Entry flow.NodeID `json:"entry"`
}

type selectRequest struct {
	Option flow.OptionID `json:"option" validate:"required"`
}

// FlowView is the full editor state.
type FlowView struct {
	Nodes []flow.Node   `json:"nodes"`
	Edges []canvas.Edge `json:"edges"`
	Run   RunView       `json:"run"`
}

// RunView is the presentation state with the node being shown.
type RunView struct {
	State string     `json:"state"`
	Leaf  bool       `json:"leaf"`
	Node  *flow.Node `json:"node,omitempty"`
}

// decode reads a JSON body into v and validates it. An empty body is
// accepted when optional is set.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) && optional {
		err = nil
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return false
	}
	return true
}

func (s *Server) runView() RunView {
	return newRunView(s.session.View())
}

func newRunView(v session.View) RunView {
	return RunView{State: v.Run.State.String(), Leaf: v.Run.Leaf, Node: v.Current}
}

func (s *Server) getFlow(w http.ResponseWriter, r *http.Request) {
	v := s.session.View()
	respondJSON(w, http.StatusOK, FlowView{
		Nodes: v.Snapshot.Nodes,
		Edges: v.Edges,
		Run:   newRunView(v),
	})
}

func (s *Server) getFlowSVG(w http.ResponseWriter, r *http.Request) {
	opts := render.DefaultOptions()
	opts.Metrics = s.session.Metrics()
	opts.Title = r.URL.Query().Get("title")
	v := s.session.View()
	if v.Current != nil {
		opts.Highlight = v.Current.ID
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	if err := render.WriteSVG(w, v.Snapshot, opts); err != nil {
		s.logger.Error("Failed to write SVG", zap.Error(err))
	}
}

func (s *Server) getEdges(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.session.Edges())
}

func (s *Server) addNode(w http.ResponseWriter, r *http.Request) {
	id, err := s.session.AddNode()
	s.metrics.command("add_node", err)
	if err != nil {
		respondCommandError(w, err)
		return
	}
	s.metrics.Nodes.Inc()
	respondJSON(w, http.StatusCreated, map[string]flow.NodeID{"id": id})
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request) {
	n, ok := s.session.Node(flow.NodeID(chi.URLParam(r, "nodeID")))
	if !ok {
		respondError(w, http.StatusNotFound, "node_not_found", "Node not found")
		return
	}
	respondJSON(w, http.StatusOK, n)
}

func (s *Server) updateNode(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decode(w, r, &req, false) {
		return
	}
	err := s.session.UpdateNodeText(flow.NodeID(chi.URLParam(r, "nodeID")), req.Text)
	s.metrics.command("update_node", err)
	if err != nil {
		respondCommandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	id := flow.NodeID(chi.URLParam(r, "nodeID"))
	del, err := s.session.DeleteNode(id)
	s.respondDeletion(w, "delete_node", del, err)
}

func (s *Server) addOption(w http.ResponseWriter, r *http.Request) {
	opt, target, err := s.session.AddOption(flow.NodeID(chi.URLParam(r, "nodeID")))
	s.metrics.command("add_option", err)
	if err != nil {
		respondCommandError(w, err)
		return
	}
	if opt == "" {
		respondError(w, http.StatusNotFound, "node_not_found", "Node not found")
		return
	}
	s.metrics.Nodes.Inc()
	respondJSON(w, http.StatusCreated, map[string]string{
		"option":       string(opt),
		"targetNodeId": string(target),
	})
}

func (s *Server) updateOption(w http.ResponseWriter, r *http.Request) {
	var req optionRequest
	if !s.decode(w, r, &req, false) {
		return
	}
	node := flow.NodeID(chi.URLParam(r, "nodeID"))
	opt := flow.OptionID(chi.URLParam(r, "optionID"))

	if req.Text != nil {
		err := s.session.UpdateOptionText(node, opt, *req.Text)
		s.metrics.command("update_option", err)
		if err != nil {
			respondCommandError(w, err)
			return
		}
	}
	if req.Target != nil {
		ok, err := s.session.LinkOption(node, opt, *req.Target)
		s.metrics.command("link_option", err)
		if err != nil {
			respondCommandError(w, err)
			return
		}
		if !ok {
			respondError(w, http.StatusNotFound, "not_found", "Option or target not found")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteOption(w http.ResponseWriter, r *http.Request) {
	node := flow.NodeID(chi.URLParam(r, "nodeID"))
	opt := flow.OptionID(chi.URLParam(r, "optionID"))
	del, err := s.session.DeleteOption(node, opt)
	s.respondDeletion(w, "delete_option", del, err)
}

// respondDeletion reports a delete. A refused cascade still reports what
// was removed before the refusal, alongside the error.
func (s *Server) respondDeletion(w http.ResponseWriter, cmd string, del flow.Deletion, err error) {
	s.metrics.command(cmd, err)
	if !del.Empty() {
		s.metrics.Cascade.Observe(float64(len(del.Removed)))
		s.metrics.Nodes.Set(float64(s.session.Snapshot().Len()))
	}
	if err != nil {
		s.logger.Warn("Delete refused", zap.String("command", cmd), zap.Error(err))
		respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, del)
}

func (s *Server) beginDrag(w http.ResponseWriter, r *http.Request) {
	var req beginDragRequest
	if !s.decode(w, r, &req, false) {
		return
	}
	ok, err := s.session.BeginDrag(req.Node, req.point())
	s.metrics.command("begin_drag", err)
	if err != nil {
		respondCommandError(w, err)
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "node_not_found", "Node not found")
		return
	}
	drag, _ := s.session.Dragging()
	respondJSON(w, http.StatusOK, drag)
}

func (s *Server) moveDrag(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if !s.decode(w, r, &req, false) {
		return
	}
	p, ok := s.session.MoveDrag(req.point())
	if !ok {
		respondError(w, http.StatusConflict, "no_drag", "No drag in progress")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) endDrag(w http.ResponseWriter, r *http.Request) {
	s.session.EndDrag()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) runStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.runView())
}

func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if !s.decode(w, r, &req, true) {
		return
	}
	_, err := s.session.StartRun(req.Entry)
	s.metrics.command("start_run", err)
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.runView())
}

func (s *Server) selectOption(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !s.decode(w, r, &req, false) {
		return
	}
	s.session.SelectOption(req.Option)
	s.metrics.command("select_option", nil)
	respondJSON(w, http.StatusOK, s.runView())
}

func (s *Server) restartRun(w http.ResponseWriter, r *http.Request) {
	s.session.RestartRun()
	respondJSON(w, http.StatusOK, s.runView())
}

func (s *Server) exitRun(w http.ResponseWriter, r *http.Request) {
	s.session.ExitRun()
	w.WriteHeader(http.StatusNoContent)
}
