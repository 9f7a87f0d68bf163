/*
   OqtaDrive - Sinclair Microdrive emulator
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of OqtaDrive.

   OqtaDrive is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   OqtaDrive is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with OqtaDrive. If not, see <http://www.gnu.org/licenses/>.
*/

// Package control exposes the running daemon over HTTP: engine status,
// catalog listing, slot binding, and persisting the current bindings.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/wd1770/pkg/daemon"
)

// APIServer serves the control API until Stop is called.
type APIServer interface {
	Serve() error
	Stop() error
}

// NewAPIServer creates an APIServer listening on addr, backed by d.
func NewAPIServer(addr string, d *daemon.Daemon) APIServer {
	return &api{address: addr, daemon: d}
}

type api struct {
	address string
	daemon  *daemon.Daemon
	server  *http.Server
}

func (a *api) Serve() error {

	router := mux.NewRouter().StrictSlash(true)

	addRoute(router, "status", "GET", "/status", a.status)
	addRoute(router, "list", "GET", "/list", a.list)
	addRoute(router, "load", "PUT", "/drive/{slot:[0-1]}", a.load)
	addRoute(router, "unload", "GET", "/drive/{slot:[0-1]}/unload", a.unload)
	addRoute(router, "config", "PUT", "/config", a.config)

	addr := a.address
	if len(strings.Split(addr, ":")) < 2 {
		addr = fmt.Sprintf("%s:8888", a.address)
	}

	log.Infof("wd1770 control API starts listening on %s", addr)
	a.server = &http.Server{Addr: addr, Handler: router}

	err := a.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *api) Stop() error {
	if a.server != nil {
		log.Info("API server stopping...")
		err := a.server.Shutdown(context.Background())
		a.server = nil
		return err
	}
	return nil
}

func addRoute(r *mux.Router, name, method, pattern string, handler http.HandlerFunc) {
	r.Methods(method).
		Path(pattern).
		Name(name).
		Handler(requestLogger(handler, name))
}

func requestLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		log.WithFields(log.Fields{
			"remote": r.RemoteAddr,
			"method": r.Method,
			"path":   r.RequestURI,
		}).Debugf("API BEGIN | %s", name)

		start := time.Now()
		inner.ServeHTTP(w, r)

		log.WithFields(log.Fields{
			"remote":   r.RemoteAddr,
			"method":   r.Method,
			"path":     r.RequestURI,
			"duration": time.Since(start),
		}).Debugf("API END   | %s", name)
	})
}

func (a *api) status(w http.ResponseWriter, req *http.Request) {

	e := a.daemon.Engine()
	stat := &Status{
		Drive: e.ActiveDrive(),
		State: e.State().String(),
		Track: e.CurrentTrack(),
		Motor: e.MotorOn(),
		Busy:  e.Busy(),
	}

	if wantsJSON(req) {
		sendJSONReply(stat, http.StatusOK, w)
	} else {
		sendReply([]byte(stat.String()), http.StatusOK, w)
	}
}

func (a *api) list(w http.ResponseWriter, req *http.Request) {

	entries := a.daemon.Catalog().List()
	images := make([]*Image, len(entries))
	for ix, d := range entries {
		images[ix] = imageFromDescriptor(ix, d)
	}

	if wantsJSON(req) {
		sendJSONReply(images, http.StatusOK, w)
		return
	}

	list := "\nIDX NAME             TRACKS SPT SIZE PROT"
	for _, img := range images {
		list += fmt.Sprintf("\n%3d %-16s %6d %3d %4d %t",
			img.Index, img.Name, img.Tracks, img.SectorsPerTrack,
			img.SectorSize, img.WriteProtected)
	}
	sendReply([]byte(list), http.StatusOK, w)
}

func (a *api) load(w http.ResponseWriter, req *http.Request) {

	slot, ok := getSlot(w, req)
	if !ok {
		return
	}

	index, err := getIntArg(req, "index")
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	if handleError(a.daemon.Catalog().Bind(slot, index),
		http.StatusUnprocessableEntity, w) {
		return
	}

	sendReply([]byte(fmt.Sprintf("slot %d: bound", slot)), http.StatusOK, w)
}

func (a *api) unload(w http.ResponseWriter, req *http.Request) {

	slot, ok := getSlot(w, req)
	if !ok {
		return
	}

	if handleError(a.daemon.Catalog().Unbind(slot),
		http.StatusInternalServerError, w) {
		return
	}

	sendReply([]byte(fmt.Sprintf("slot %d: ejected", slot)), http.StatusOK, w)
}

func (a *api) config(w http.ResponseWriter, req *http.Request) {

	if handleError(a.daemon.Catalog().Save(),
		http.StatusInternalServerError, w) {
		return
	}

	sendReply([]byte("slot config saved"), http.StatusOK, w)
}

func getSlot(w http.ResponseWriter, req *http.Request) (int, bool) {
	vars := mux.Vars(req)
	slot, err := strconv.Atoi(vars["slot"])
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return -1, false
	}
	return slot, true
}

func getIntArg(req *http.Request, arg string) (int, error) {
	val := req.URL.Query().Get(arg)
	if val == "" {
		return -1, fmt.Errorf("missing argument: %s", arg)
	}
	return strconv.Atoi(val)
}

func setHeaders(h http.Header, json bool) {
	if json {
		h.Set("Content-Type", "application/json; charset=UTF-8")
	} else {
		h.Set("Content-Type", "text/plain; charset=UTF-8")
	}
}

func handleError(e error, statusCode int, w http.ResponseWriter) bool {

	if e == nil {
		return false
	}

	log.Errorf("%v", e)

	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(fmt.Sprintf("%v\n", e))); err != nil {
		log.Errorf("problem writing error: %v", err)
	}

	return true
}

func sendReply(body []byte, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := fmt.Fprintf(w, "%s\n", body); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

func sendJSONReply(obj interface{}, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), true)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		log.Errorf("problem writing reply: %v", err)
	}
}

func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json") ||
		req.Header.Get("Content-Type") == "application/json"
}
