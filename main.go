package main

import (
	"flag"
	"walletwatch/api"
	"walletwatch/config"
	"walletwatch/db"
	"walletwatch/log"
	"walletwatch/mail"
	"walletwatch/tasks"
)

var enableMail bool

func init() {
	flag.BoolVar(&enableMail, "mail", false, "If mail alert is enabled")
}

func main() {
	flag.Parse()

	log.Init()
	config.Load(true)
	db.Init()
	mail.Init(enableMail)

	defer mail.AlertIfErr()

	tasks.Run()
	api.Start()

	select {}
}
